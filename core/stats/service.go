package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/course"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/user"
)

const (
	DefaultActivityLimit = 10
	DefaultDays          = 30
	MaxDays              = 365

	recentItems = 5
	dateLayout  = "2006-01-02"
)

// NowFunc is mocked in tests.
var NowFunc = core.Now

type (
	Service interface {
		Overview(ctx context.Context) (Overview, error)
		// Learners lists results by overall progress, descending unless ascending.
		Learners(ctx context.Context, page core.Pagination, ascending bool) (LearnerPage, error)
		AllLearners(ctx context.Context, ascending bool) ([]Learner, error)
		LearnerDetail(ctx context.Context, userID string) (LearnerDetail, error)
		Courses(ctx context.Context) ([]CourseStats, error)
		Activities(ctx context.Context, limit int) ([]Activity, error)
		TimeSeries(ctx context.Context, days int) ([]DayStats, error)
	}

	service struct {
		userSvc   user.Service
		courseSvc course.Service
		resultSvc result.Service
	}
)

var _ Service = (*service)(nil)

func NewService(userSvc user.Service, courseSvc course.Service, resultSvc result.Service) Service {
	return &service{
		userSvc:   userSvc,
		courseSvc: courseSvc,
		resultSvc: resultSvc,
	}
}

func (svc *service) Overview(ctx context.Context) (Overview, error) {
	var ov Overview
	lastMonth := NowFunc().AddDate(0, -1, 0)
	learners := user.QueryFilter{Role: user.RoleUser}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ov.Users.Total, err = svc.userSvc.Count(ctx, learners)
		return errors.Wrap(err, "counting learners")
	})
	g.Go(func() (err error) {
		filter := learners
		filter.CreatedTo = lastMonth
		ov.Users.LastMonth, err = svc.userSvc.Count(ctx, filter)
		return errors.Wrap(err, "counting learners of last month")
	})
	g.Go(func() (err error) {
		ov.Courses.Total, err = svc.courseSvc.Count(ctx, course.QueryFilter{})
		return errors.Wrap(err, "counting courses")
	})
	g.Go(func() (err error) {
		ov.Courses.NewThisMonth, err = svc.courseSvc.Count(ctx, course.QueryFilter{CreatedFrom: lastMonth})
		return errors.Wrap(err, "counting new courses")
	})
	g.Go(func() error {
		courses, err := svc.courseSvc.Filter(ctx, course.QueryFilter{})
		if err != nil {
			return errors.Wrap(err, "filtering courses")
		}
		for _, c := range courses {
			ov.Exercises.Total += int64(len(c.ExerciseIDs))
		}
		return nil
	})
	g.Go(func() (err error) {
		ov.Exercises.Attempts, err = svc.resultSvc.CountExamAttempts(ctx, result.QueryFilter{})
		return errors.Wrap(err, "counting exam attempts")
	})
	g.Go(func() (err error) {
		ov.Achievements.Total, err = svc.resultSvc.Count(ctx, result.QueryFilter{Status: result.StatusCompleted})
		return errors.Wrap(err, "counting completed results")
	})
	g.Go(func() (err error) {
		ov.Achievements.TotalUnlocked, err = svc.resultSvc.Count(ctx, result.QueryFilter{MinOverall: result.PassPercentage})
		return errors.Wrap(err, "counting unlocked achievements")
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	ov.Users.Growth = growth(ov.Users.Total, ov.Users.LastMonth)
	return ov, nil
}

func (svc *service) Learners(ctx context.Context, page core.Pagination, ascending bool) (LearnerPage, error) {
	page.Clean()

	var (
		results []result.Result
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		results, err = svc.resultSvc.Filter(gctx, result.QueryFilter{}, overallOrdering(ascending), &page)
		return errors.Wrap(err, "filtering results")
	})
	g.Go(func() (err error) {
		total, err = svc.resultSvc.Count(gctx, result.QueryFilter{})
		return errors.Wrap(err, "counting results")
	})
	if err := g.Wait(); err != nil {
		return LearnerPage{}, err
	}

	learners, err := svc.learners(ctx, results)
	if err != nil {
		return LearnerPage{}, err
	}
	return LearnerPage{
		Learners: learners,
		Pagination: Pagination{
			Total:      total,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: page.TotalPages(total),
		},
	}, nil
}

func (svc *service) AllLearners(ctx context.Context, ascending bool) ([]Learner, error) {
	results, err := svc.resultSvc.Filter(ctx, result.QueryFilter{}, overallOrdering(ascending), nil)
	if err != nil {
		return nil, errors.Wrap(err, "filtering results")
	}
	return svc.learners(ctx, results)
}

func (svc *service) LearnerDetail(ctx context.Context, userID string) (LearnerDetail, error) {
	if !core.IsValidID(userID) {
		return LearnerDetail{}, core.NewValidationError(nil, core.FieldError{Field: "userId", Error: "invalid value"})
	}
	usr, err := svc.userSvc.GetByID(ctx, userID)
	if err != nil {
		return LearnerDetail{}, err
	}
	results, err := svc.resultSvc.Filter(ctx, result.QueryFilter{UserID: usr.ID}, nil, nil)
	if err != nil {
		return LearnerDetail{}, errors.Wrap(err, "filtering results")
	}
	courses, err := svc.courseMap(ctx)
	if err != nil {
		return LearnerDetail{}, err
	}

	detail := LearnerDetail{
		User: LearnerUser{
			ID:        usr.ID,
			Username:  usr.Username,
			Email:     usr.Email,
			Role:      usr.Role,
			IsActive:  usr.IsActive,
			CreatedAt: usr.CreatedAt,
		},
		Courses: make([]LearnerCourse, 0, len(results)),
	}
	sum := &detail.Summary
	totalProgress := 0
	for _, r := range results {
		sum.TotalCourses++
		switch r.Status {
		case result.StatusCompleted:
			sum.CompletedCourses++
		case result.StatusInProgress:
			sum.InProgressCourses++
		}
		sum.TotalStudyTime += r.Stats.TotalStudyTime
		sum.TotalExamAttempts += len(r.ExamResults)
		if r.Stats.StreakDays > sum.MaxStreak {
			sum.MaxStreak = r.Stats.StreakDays
		}
		totalProgress += r.Progress.Overall.Percentage

		c := courses[r.CourseID]
		detail.Courses = append(detail.Courses, LearnerCourse{
			CourseID:     r.CourseID,
			CourseName:   c.Name,
			CourseLevel:  c.Level,
			CourseImage:  c.Image,
			Progress:     r.Progress.Overall.Percentage,
			Status:       r.Status,
			StudyTime:    r.Stats.TotalStudyTime,
			ExamAttempts: len(r.ExamResults),
			LastStudied:  r.Stats.LastStudied,
			StartedAt:    r.StartedAt,
			CompletedAt:  r.CompletedAt,
		})
	}
	sum.AverageProgress = average(totalProgress, sum.TotalCourses)
	return detail, nil
}

func (svc *service) Courses(ctx context.Context) ([]CourseStats, error) {
	var (
		courses []course.Course
		results []result.Result
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		courses, err = svc.courseSvc.Filter(ctx, course.QueryFilter{})
		return errors.Wrap(err, "filtering courses")
	})
	g.Go(func() (err error) {
		results, err = svc.resultSvc.Filter(ctx, result.QueryFilter{}, nil, nil)
		return errors.Wrap(err, "filtering results")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byCourse := make(map[string][]result.Result)
	for _, r := range results {
		byCourse[r.CourseID] = append(byCourse[r.CourseID], r)
	}

	stats := make([]CourseStats, 0, len(courses))
	for _, c := range courses {
		cs := CourseStats{CourseID: c.ID, CourseName: c.Name, CourseLevel: c.Level}
		totalProgress := 0
		for _, r := range byCourse[c.ID] {
			cs.TotalLearners++
			switch r.Status {
			case result.StatusCompleted:
				cs.CompletedLearners++
			case result.StatusInProgress:
				cs.InProgressLearners++
			}
			totalProgress += r.Progress.Overall.Percentage
			cs.TotalExamAttempts += len(r.ExamResults)
		}
		cs.AverageProgress = average(totalProgress, cs.TotalLearners)
		cs.CompletionRate = result.Percentage(cs.CompletedLearners, cs.TotalLearners)
		stats = append(stats, cs)
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].TotalLearners > stats[j].TotalLearners })
	return stats, nil
}

func (svc *service) Activities(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	recent := core.Pagination{Page: 1, Limit: recentItems}

	var (
		users       []user.User
		courses     []course.Course
		completions []result.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = svc.userSvc.Filter(gctx, user.QueryFilter{Role: user.RoleUser}, &recent)
		return errors.Wrap(err, "filtering users")
	})
	g.Go(func() (err error) {
		courses, err = svc.courseSvc.Filter(gctx, course.QueryFilter{})
		return errors.Wrap(err, "filtering courses")
	})
	g.Go(func() (err error) {
		ord := &core.DBOrdering{Field: result.OrderCompletedAt}
		completions, err = svc.resultSvc.Filter(gctx, result.QueryFilter{Status: result.StatusCompleted}, ord, &recent)
		return errors.Wrap(err, "filtering completed results")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	activities := make([]Activity, 0, len(users)+recentItems+len(completions))
	for _, usr := range users {
		activities = append(activities, Activity{
			Type:        ActivityNewUser,
			Title:       "New user registered",
			Description: usr.Username + " created an account",
			Timestamp:   usr.CreatedAt,
			Icon:        "user",
		})
	}
	if len(courses) > recentItems {
		courses = courses[:recentItems]
	}
	for _, c := range courses {
		activities = append(activities, Activity{
			Type:        ActivityNewCourse,
			Title:       "New course created",
			Description: fmt.Sprintf("%q - %s", c.Name, c.Level),
			Timestamp:   c.CreatedAt,
			Icon:        "book",
		})
	}
	for _, r := range completions {
		if r.CompletedAt == nil {
			continue
		}
		username, courseName := unknownUser, unknownUser
		if usr, err := svc.userSvc.GetByID(ctx, r.UserID); err == nil {
			username = usr.Username
		}
		if c, err := svc.courseSvc.GetByID(ctx, r.CourseID); err == nil {
			courseName = c.Name
		}
		activities = append(activities, Activity{
			Type:        ActivityCompletion,
			Title:       "Course completed",
			Description: fmt.Sprintf("%s completed %q", username, courseName),
			Timestamp:   *r.CompletedAt,
			Icon:        "achievement",
		})
	}

	sort.SliceStable(activities, func(i, j int) bool { return activities[i].Timestamp.After(activities[j].Timestamp) })
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

func (svc *service) TimeSeries(ctx context.Context, days int) ([]DayStats, error) {
	if days <= 0 {
		days = DefaultDays
	}
	if days > MaxDays {
		days = MaxDays
	}
	now := NowFunc()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	var (
		users       []user.User
		completions []result.Result
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = svc.userSvc.Filter(ctx, user.QueryFilter{Role: user.RoleUser, CreatedFrom: start}, nil)
		return errors.Wrap(err, "filtering users")
	})
	g.Go(func() (err error) {
		completions, err = svc.resultSvc.Filter(ctx, result.QueryFilter{Status: result.StatusCompleted, CompletedFrom: start}, nil, nil)
		return errors.Wrap(err, "filtering completed results")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make([]DayStats, days)
	index := make(map[string]int, days)
	for i := range series {
		date := start.AddDate(0, 0, i).Format(dateLayout)
		series[i].Date = date
		index[date] = i
	}
	for _, usr := range users {
		if i, ok := index[usr.CreatedAt.UTC().Format(dateLayout)]; ok {
			series[i].NewUsers++
		}
	}
	for _, r := range completions {
		if r.CompletedAt == nil {
			continue
		}
		if i, ok := index[r.CompletedAt.UTC().Format(dateLayout)]; ok {
			series[i].Completions++
		}
	}
	return series, nil
}

// learners joins results with their user and course.
func (svc *service) learners(ctx context.Context, results []result.Result) ([]Learner, error) {
	var (
		users   map[string]user.User
		courses map[string]course.Course
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := svc.userSvc.Filter(gctx, user.QueryFilter{}, nil)
		if err != nil {
			return errors.Wrap(err, "filtering users")
		}
		users = make(map[string]user.User, len(list))
		for _, usr := range list {
			users[usr.ID] = usr
		}
		return nil
	})
	g.Go(func() (err error) {
		courses, err = svc.courseMap(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	learners := make([]Learner, 0, len(results))
	for _, r := range results {
		l := Learner{
			UserID:      r.UserID,
			Username:    unknownUser,
			Email:       unknownEmail,
			CourseID:    r.CourseID,
			CourseName:  unknownCourse,
			CourseLevel: defaultLevel,
			Progress: LearnerProgress{
				Overall:    r.Progress.Overall.Percentage,
				Vocabulary: r.Progress.Vocabulary.Percentage,
				Exercises:  r.Progress.Exercises.Percentage,
			},
			Stats: LearnerStudy{
				TotalStudyTime: r.Stats.TotalStudyTime,
				StreakDays:     r.Stats.StreakDays,
				TotalSessions:  r.Stats.TotalSessions,
				LastStudied:    r.Stats.LastStudied,
			},
			ExamResults: len(r.ExamResults),
			Status:      r.Status,
			StartedAt:   r.StartedAt,
			CompletedAt: r.CompletedAt,
		}
		if usr, ok := users[r.UserID]; ok {
			l.Username = usr.Username
			l.Email = usr.Email
		}
		if c, ok := courses[r.CourseID]; ok {
			if l.CourseName = c.Name; l.CourseName == "" {
				l.CourseName = c.DisplayTitle()
			}
			if c.Level != "" {
				l.CourseLevel = c.Level
			}
		}
		learners = append(learners, l)
	}
	return learners, nil
}

func (svc *service) courseMap(ctx context.Context) (map[string]course.Course, error) {
	courses, err := svc.courseSvc.Filter(ctx, course.QueryFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "filtering courses")
	}
	m := make(map[string]course.Course, len(courses))
	for _, c := range courses {
		m[c.ID] = c
	}
	return m, nil
}

func overallOrdering(ascending bool) *core.DBOrdering {
	return &core.DBOrdering{Field: result.OrderOverall, Ascending: ascending}
}

// growth returns the growth of total over previous in %, 100 when there is no previous.
func growth(total, previous int64) int64 {
	if previous <= 0 {
		return 100
	}
	return int64(math.Round(float64(total-previous) / float64(previous) * 100))
}

func average(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
