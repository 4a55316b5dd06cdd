package stats

import "time"

// Activity types
const (
	ActivityNewUser    = "new_user"
	ActivityNewCourse  = "new_course"
	ActivityCompletion = "completion"
)

const (
	unknownUser   = "Unknown"
	unknownEmail  = "N/A"
	unknownCourse = "Unknown Course"
	defaultLevel  = "Beginner"
)

type (
	UserCounts struct {
		Total     int64 `json:"total"`
		Growth    int64 `json:"growth"` // %
		LastMonth int64 `json:"lastMonth"`
	}

	CourseCounts struct {
		Total        int64 `json:"total"`
		NewThisMonth int64 `json:"newThisMonth"`
	}

	ExerciseCounts struct {
		Total    int64 `json:"total"`
		Attempts int64 `json:"attempts"`
	}

	AchievementCounts struct {
		Total         int64 `json:"total"`
		TotalUnlocked int64 `json:"totalUnlocked"`
	}

	Overview struct {
		Users        UserCounts        `json:"users"`
		Courses      CourseCounts      `json:"courses"`
		Exercises    ExerciseCounts    `json:"exercises"`
		Achievements AchievementCounts `json:"achievements"`
	}
)

type (
	LearnerProgress struct {
		Overall    int `json:"overall"`
		Vocabulary int `json:"vocabulary"`
		Exercises  int `json:"exercises"`
	}

	LearnerStudy struct {
		TotalStudyTime int        `json:"totalStudyTime"`
		StreakDays     int        `json:"streakDays"`
		TotalSessions  int        `json:"totalSessions"`
		LastStudied    *time.Time `json:"lastStudied"`
	}

	// Learner is the progress of a user in one course.
	Learner struct {
		UserID      string          `json:"userId"`
		Username    string          `json:"username"`
		Email       string          `json:"email"`
		CourseID    string          `json:"courseId"`
		CourseName  string          `json:"courseName"`
		CourseLevel string          `json:"courseLevel"`
		Progress    LearnerProgress `json:"progress"`
		Stats       LearnerStudy    `json:"stats"`
		ExamResults int             `json:"examResults"`
		Status      string          `json:"status"`
		StartedAt   *time.Time      `json:"startedAt"`
		CompletedAt *time.Time      `json:"completedAt"`
	}

	Pagination struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalPages int64 `json:"totalPages"`
	}

	LearnerPage struct {
		Learners   []Learner  `json:"data"`
		Pagination Pagination `json:"pagination"`
	}
)

type (
	LearnerUser struct {
		ID        string    `json:"id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		Role      string    `json:"role"`
		IsActive  bool      `json:"isActive"`
		CreatedAt time.Time `json:"createdAt"`
	}

	LearnerSummary struct {
		TotalCourses      int `json:"totalCourses"`
		CompletedCourses  int `json:"completedCourses"`
		InProgressCourses int `json:"inProgressCourses"`
		TotalStudyTime    int `json:"totalStudyTime"`
		TotalExamAttempts int `json:"totalExamAttempts"`
		AverageProgress   int `json:"averageProgress"`
		MaxStreak         int `json:"maxStreak"`
	}

	LearnerCourse struct {
		CourseID     string     `json:"courseId"`
		CourseName   string     `json:"courseName"`
		CourseLevel  string     `json:"courseLevel"`
		CourseImage  string     `json:"courseImage"`
		Progress     int        `json:"progress"`
		Status       string     `json:"status"`
		StudyTime    int        `json:"studyTime"`
		ExamAttempts int        `json:"examAttempts"`
		LastStudied  *time.Time `json:"lastStudied"`
		StartedAt    *time.Time `json:"startedAt"`
		CompletedAt  *time.Time `json:"completedAt"`
	}

	LearnerDetail struct {
		User    LearnerUser     `json:"user"`
		Summary LearnerSummary  `json:"summary"`
		Courses []LearnerCourse `json:"courses"`
	}
)

type CourseStats struct {
	CourseID           string `json:"courseId"`
	CourseName         string `json:"courseName"`
	CourseLevel        string `json:"courseLevel"`
	TotalLearners      int    `json:"totalLearners"`
	CompletedLearners  int    `json:"completedLearners"`
	InProgressLearners int    `json:"inProgressLearners"`
	AverageProgress    int    `json:"averageProgress"`
	TotalExamAttempts  int    `json:"totalExamAttempts"`
	CompletionRate     int    `json:"completionRate"` // %
}

type Activity struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Icon        string    `json:"icon"`
}

// DayStats counts the events of one UTC day.
type DayStats struct {
	Date        string `json:"date"` // YYYY-MM-DD
	NewUsers    int    `json:"newUsers"`
	Completions int    `json:"completions"`
}
