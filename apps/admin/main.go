package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/seed"
	"github.com/eduenglish/backend/core/user"
	emailsvc "github.com/eduenglish/backend/services/email"
	logsvc "github.com/eduenglish/backend/services/logger"
	"github.com/eduenglish/backend/storage/database/mongodb"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)
	appLogger, err := logsvc.NewRollbarLogger(conf)
	errAndDie(err)
	defer appLogger.Sync()

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := mongodb.Open(ctx, conf)
	cancel()
	errAndDie(err)
	defer db.Close(context.Background())

	// set up services
	usrSvc := user.NewService(mongodb.NewUserRepository(db), emailsvc.NewConsoleService(conf, appLogger), conf, nil)
	courseSvc := course.NewService(mongodb.NewCourseRepository(db), mongodb.NewContentRepository(db), mongodb.NewVocabularyRepository(db))

	// start CLI
	cli := commandLine{
		usrSvc:    usrSvc,
		courseSvc: courseSvc,
		resultSvc: result.NewService(mongodb.NewResultRepository(db), courseSvc),
		seeder:    seed.New(conf, usrSvc, courseSvc, appLogger),
		out:       os.Stdout,
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		_ = db.Close(context.Background())
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
