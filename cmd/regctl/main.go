package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uni-reg-api/internal/migrations"
	"github.com/noah-isme/uni-reg-api/internal/models"
	"github.com/noah-isme/uni-reg-api/internal/repository"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
}

func main() {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"))

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := migrations.InitSchema(context.Background(), db); err != nil {
		log.Printf("Warning: error initializing schema: %v", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		displayMenu()
		choice := readChoice(scanner)

		switch choice {
		case "1":
			displaySections(db)
		case "2":
			displayCourses(db)
		case "3":
			displayStudents(db, scanner)
		case "4":
			displayStudentSchedule(db, scanner)
		case "5":
			displaySeatUtilization(db)
		case "6":
			seedDemoData(db)
		case "7":
			color.Green("Goodbye.")
			return
		default:
			color.Red("Invalid choice. Please try again.")
		}
	}
}

func displayMenu() {
	color.Cyan("\n=== University Registration Console ===")
	fmt.Println("1. List Sections")
	fmt.Println("2. List Courses")
	fmt.Println("3. List Students by Program")
	fmt.Println("4. Show Student Schedule")
	fmt.Println("5. Seat Utilization")
	fmt.Println("6. Seed Demo Data")
	fmt.Println("7. Exit")
	fmt.Print("\nEnter your choice (1-7): ")
}

func readChoice(scanner *bufio.Scanner) string {
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

func displaySections(db *sqlx.DB) {
	sections, err := repository.NewSectionRepository(db).List(context.Background())
	if err != nil {
		log.Printf("Error listing sections: %v", err)
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Section", "Course", "Instructor", "Days", "Time", "Enrolled", "Capacity"})

	for _, s := range sections {
		days := make([]string, len(s.Days))
		for i, d := range s.Days {
			days[i] = string(d)
		}
		table.Append([]string{
			s.ID,
			s.CourseCode,
			s.Instructor,
			strings.Join(days, ","),
			fmt.Sprintf("%02d:00-%02d:00", s.StartTime, s.EndTime),
			fmt.Sprintf("%d", s.CurrentEnrollment),
			fmt.Sprintf("%d", s.MaxCapacity),
		})
	}

	table.Render()
}

func displayCourses(db *sqlx.DB) {
	courses, err := repository.NewCourseRepository(db).ListWithPrerequisites(context.Background())
	if err != nil {
		log.Printf("Error listing courses: %v", err)
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Code", "Name", "Credits", "Prerequisites"})

	for _, c := range courses {
		table.Append([]string{
			c.Code,
			c.Name,
			fmt.Sprintf("%d", c.Credits),
			strings.Join(c.Prerequisites, ", "),
		})
	}

	table.Render()
}

func displayStudents(db *sqlx.DB, scanner *bufio.Scanner) {
	fmt.Print("Enter program (Computer/Comm/Power/Biomedical, empty for all): ")
	program := models.CanonicalProgram(readChoice(scanner))
	if !program.Valid() {
		program = ""
	}

	students, total, err := repository.NewStudentRepository(db).List(context.Background(), models.StudentFilter{
		Program:  program,
		Page:     1,
		PageSize: 50,
	})
	if err != nil {
		log.Printf("Error listing students: %v", err)
		return
	}

	color.Yellow("\n%d students total", total)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Email", "Program", "Level"})

	for _, s := range students {
		table.Append([]string{
			s.ID,
			s.Name,
			s.Email,
			string(s.Program),
			fmt.Sprintf("%d", s.Level),
		})
	}

	table.Render()
}

func displayStudentSchedule(db *sqlx.DB, scanner *bufio.Scanner) {
	fmt.Print("Enter student id: ")
	studentID := readChoice(scanner)
	if studentID == "" {
		color.Red("Student id is required.")
		return
	}

	ctx := context.Background()
	registrations, err := repository.NewRegistrationRepository(db).ListByStudent(ctx, studentID)
	if err != nil {
		log.Printf("Error loading registrations: %v", err)
		return
	}
	if len(registrations) == 0 {
		color.Yellow("No registrations for %s.", studentID)
		return
	}

	sections := repository.NewSectionRepository(db)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Section", "Course", "Time", "Hall"})

	for _, reg := range registrations {
		section, err := sections.FindByID(ctx, reg.SectionID)
		if err != nil {
			log.Printf("Error loading section %s: %v", reg.SectionID, err)
			continue
		}
		table.Append([]string{
			section.ID,
			section.CourseCode,
			fmt.Sprintf("%02d:00-%02d:00", section.StartTime, section.EndTime),
			section.Hall,
		})
	}

	table.Render()
}

func displaySeatUtilization(db *sqlx.DB) {
	type row struct {
		CourseCode string `db:"course_code"`
		Sections   int    `db:"sections"`
		Enrolled   int    `db:"enrolled"`
		Capacity   int    `db:"capacity"`
	}

	var rows []row
	err := db.Select(&rows, `
		SELECT course_code,
		       COUNT(*) AS sections,
		       COALESCE(SUM(current_enrollment), 0) AS enrolled,
		       COALESCE(SUM(max_capacity), 0) AS capacity
		FROM sections
		GROUP BY course_code
		ORDER BY course_code`)
	if err != nil {
		log.Printf("Error computing utilization: %v", err)
		return
	}

	color.Yellow("\nSeat Utilization by Course")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Course", "Sections", "Enrolled", "Capacity", "Fill %"})

	for _, r := range rows {
		fill := 0.0
		if r.Capacity > 0 {
			fill = float64(r.Enrolled) / float64(r.Capacity) * 100
		}
		table.Append([]string{
			r.CourseCode,
			fmt.Sprintf("%d", r.Sections),
			fmt.Sprintf("%d", r.Enrolled),
			fmt.Sprintf("%d", r.Capacity),
			fmt.Sprintf("%.1f", fill),
		})
	}

	table.Render()
}

func seedDemoData(db *sqlx.DB) {
	ctx := context.Background()
	courses := repository.NewCourseRepository(db)
	sections := repository.NewSectionRepository(db)
	plans := repository.NewProgramPlanRepository(db)
	students := repository.NewStudentRepository(db)
	users := repository.NewUserRepository(db)

	demoCourses := []models.Course{
		{Code: "CS101", Name: "Intro to Programming", Credits: 3, LectureHours: 3},
		{Code: "CS201", Name: "Data Structures", Credits: 4, LectureHours: 3, LabHours: 2, Prerequisites: []string{"CS101"}},
		{Code: "MA101", Name: "Calculus I", Credits: 3, LectureHours: 3},
		{Code: "EE150", Name: "Circuit Analysis", Credits: 4, LectureHours: 3, LabHours: 2},
	}
	for _, course := range demoCourses {
		if err := courses.Upsert(ctx, course); err != nil {
			log.Printf("Error seeding course %s: %v", course.Code, err)
			return
		}
	}

	demoSections := []models.Section{
		{ID: "CS101-A", CourseCode: "CS101", Instructor: "Dr. Hart", StartTime: 8, EndTime: 10, Hall: "H1", MaxCapacity: 30, Days: []models.Weekday{models.Sunday, models.Tuesday}},
		{ID: "CS201-A", CourseCode: "CS201", Instructor: "Dr. Hart", StartTime: 10, EndTime: 12, Hall: "H2", MaxCapacity: 25, Days: []models.Weekday{models.Monday, models.Wednesday}},
		{ID: "MA101-A", CourseCode: "MA101", Instructor: "Dr. Osei", StartTime: 12, EndTime: 14, Hall: "H3", MaxCapacity: 40, Days: []models.Weekday{models.Sunday, models.Thursday}},
		{ID: "EE150-A", CourseCode: "EE150", Instructor: "Dr. Novak", StartTime: 8, EndTime: 10, Hall: "Lab1", MaxCapacity: 20, Days: []models.Weekday{models.Monday}},
	}
	for _, section := range demoSections {
		if err := sections.Upsert(ctx, section); err != nil {
			log.Printf("Error seeding section %s: %v", section.ID, err)
			return
		}
	}

	demoPlans := []models.ProgramPlanEntry{
		{Program: models.ProgramComputer, Level: 1, CourseCode: "CS101"},
		{Program: models.ProgramComputer, Level: 1, CourseCode: "MA101"},
		{Program: models.ProgramComputer, Level: 2, CourseCode: "CS201"},
		{Program: models.ProgramPower, Level: 1, CourseCode: "MA101"},
		{Program: models.ProgramPower, Level: 1, CourseCode: "EE150"},
	}
	for _, entry := range demoPlans {
		if err := plans.Add(ctx, entry); err != nil {
			log.Printf("Error seeding plan %s/%d/%s: %v", entry.Program, entry.Level, entry.CourseCode, err)
			return
		}
	}

	demoStudent := &models.Student{
		ID:      "S1000",
		Name:    "Demo Student",
		Email:   "demo.student@uni.example",
		Program: models.ProgramComputer,
		Level:   1,
	}
	if err := students.Create(ctx, demoStudent); err != nil {
		log.Printf("Error seeding student: %v", err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing demo password: %v", err)
		return
	}
	studentID := demoStudent.ID
	demoUsers := []*models.User{
		{Email: "admin@uni.example", PasswordHash: string(hash), Role: models.RoleAdmin, DisplayName: "Registrar Admin"},
		{Email: "demo.student@uni.example", StudentID: &studentID, PasswordHash: string(hash), Role: models.RoleStudent, DisplayName: "Demo Student"},
	}
	for _, user := range demoUsers {
		if err := users.Create(ctx, user); err != nil {
			log.Printf("Error seeding user %s: %v", user.Email, err)
			return
		}
	}

	color.Green("Demo data seeded. Login with admin@uni.example / changeme.")
}
