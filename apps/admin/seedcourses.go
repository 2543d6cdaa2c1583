package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/rors/core/school"
)

// seedCourses creates the courses of school.CourseChoices that do not exist yet.
func (cli *commandLine) seedCourses() error {
	ctx := context.Background()
	for _, c := range school.CourseChoices {
		_, total, err := cli.schoolSvc.QueryCourses(ctx, &school.CourseFilter{Name: c.Value}, nil)
		if err != nil {
			return errors.Wrap(err, "querying courses")
		}
		if total > 0 {
			continue
		}
		if _, err = cli.schoolSvc.CreateCourse(ctx, school.CourseData{Name: c.Value}); err != nil {
			return errors.Wrapf(err, "creating course %s", c.Value)
		}
		fmt.Printf("created course: %s\n", c.Label)
	}
	return nil
}
