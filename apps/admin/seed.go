package main

import (
	"context"
)

func (cli *commandLine) seed(demo bool) error {
	if err := cli.seeder.Run(context.Background(), demo); err != nil {
		return err
	}
	cli.printf("seeding complete\n")
	return nil
}

func (cli *commandLine) cleanupDemo() error {
	deleted, remaining, err := cli.seeder.CleanupDemoUsers(context.Background())
	if err != nil {
		return err
	}
	cli.printf("%d demo users deleted, %d learners remaining\n", deleted, remaining)
	return nil
}
