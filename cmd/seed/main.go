// seed inserts development sample data for local testing. Run via ./scripts/seed.sh.
// Idempotent: skips inserts if the dev company (hr@acme.test) already exists.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"placement-portal/backend/internal/account/domain"
	"placement-portal/backend/internal/account/repository"
	"placement-portal/backend/internal/config"
	"placement-portal/backend/internal/db"
	"placement-portal/backend/internal/db/migrate"
	jobdomain "placement-portal/backend/internal/job/domain"
	jobrepo "placement-portal/backend/internal/job/repository"
	policydomain "placement-portal/backend/internal/policy/domain"
	"placement-portal/backend/internal/policy/engine"
	policyrepo "placement-portal/backend/internal/policy/repository"
	"placement-portal/backend/internal/security"
)

const (
	devPassword     = "password123"
	devCompanyID    = "dev-company-001"
	devCompanyEmail = "hr@acme.test"
	devStudentID    = "dev-student-001"
	devStudentEmail = "student@iiita.test"
	devJobID        = "dev-job-001"
	devPolicyID     = "dev-policy-001"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if err := migrate.Run(cfg.DatabaseURL, migrate.Up); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	companies := repository.NewCompanyRepository(conn)
	students := repository.NewStudentRepository(conn)
	jobs := jobrepo.NewPostgresRepository(conn)

	_, err = companies.GetByEmail(ctx, devCompanyEmail)
	if err == nil {
		log.Printf("Seed already applied (%s exists). Skipping.", devCompanyEmail)
		os.Exit(0)
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		log.Fatalf("seed check: %v", err)
	}

	passwordHash, err := security.NewHasher(cfg.BcryptCost).Hash(devPassword)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	batch := now.Year() + 1

	if err := companies.Create(ctx, &domain.Company{
		ID:              devCompanyID,
		Name:            "Acme Dev",
		Email:           devCompanyEmail,
		Address:         "1 Tech Park, Bengaluru",
		Phone:           "080-00000000",
		Website:         "https://acme.test",
		ProfileComplete: true,
		CreatedAt:       now,
		UpdatedAt:       now,
		Creds:           domain.Credentials{PasswordHash: passwordHash},
	}); err != nil {
		log.Fatalf("create dev company: %v", err)
	}

	if err := students.Create(ctx, &domain.Student{
		ID:              devStudentID,
		Name:            "Dev Student",
		Email:           devStudentEmail,
		Phone:           "9000000000",
		Gender:          domain.GenderOther,
		Degree:          domain.DegreeBTech,
		Branch:          "it",
		RollNo:          "IIT0000001",
		CGPI:            8.5,
		TenthMarks:      90,
		TwelfthMarks:    88,
		GraduatingYear:  batch,
		ProfileComplete: true,
		CreatedAt:       now,
		UpdatedAt:       now,
		Creds:           domain.Credentials{PasswordHash: passwordHash},
	}); err != nil {
		log.Fatalf("create dev student: %v", err)
	}

	job := &jobdomain.Job{ID: devJobID, CompanyID: devCompanyID, CreatedAt: now, UpdatedAt: now}
	draft := jobdomain.Draft{
		Type:             string(jobdomain.TypeFullTime),
		CTC:              12,
		EligibleBranches: []string{"it", "ece"},
		LastDate:         now.AddDate(0, 1, 0).Format("2006-01-02"),
		Role:             "Software Engineer",
		Location:         "Bengaluru",
		EligibleBatch:    batch,
		MinimumCGPA:      7,
	}
	if err := draft.Apply(job); err != nil {
		log.Fatalf("build dev job: %v", err)
	}
	if err := jobs.Create(ctx, job); err != nil {
		log.Fatalf("create dev job: %v", err)
	}

	if err := policyrepo.NewPostgresRepository(conn).Create(ctx, &policydomain.Policy{
		ID:        devPolicyID,
		Rules:     engine.DefaultEligibilityPolicy,
		Enabled:   true,
		CreatedAt: now,
	}); err != nil {
		log.Fatalf("create policy: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Company login: %s / %s\n", devCompanyEmail, devPassword)
	fmt.Printf("Student login: %s / %s\n", devStudentEmail, devPassword)
}
