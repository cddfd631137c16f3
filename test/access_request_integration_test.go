//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	repo "github.com/ogurasousui/access-request-service/internal/adapters/repository/postgres"
	"github.com/ogurasousui/access-request-service/internal/core/catalog"
	"github.com/ogurasousui/access-request-service/internal/core/directory"
	"github.com/ogurasousui/access-request-service/internal/core/request"
	"github.com/ogurasousui/access-request-service/internal/platform/config"
	pg "github.com/ogurasousui/access-request-service/internal/platform/db/postgres"
)

const migrationsDir = "../assets/migrations"

func TestAccessRequestLifecycleIntegration(t *testing.T) {
	cfgPath := configPathFromEnv()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if err := resetMigrations(cfg.Database.DSN(), migrationsDir); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	txManager := pg.NewTransactionManager(pool)

	directorySvc := directory.NewService(repo.NewEmployeeRepository(pool), stubClock{now: time.Now().UTC()}, txManager)
	catalogSvc := catalog.NewService(repo.NewCatalogRepository(pool), stubClock{now: time.Now().UTC()}, txManager)
	requestSvc := request.NewService(repo.NewAccessRequestRepository(pool), directorySvc, catalogSvc, stubClock{now: time.Now().UTC()}, txManager)

	manager, err := directorySvc.RegisterManager(ctx, directory.RegisterManagerInput{
		FirstName:  "Hanako",
		LastName:   "Sato",
		Email:      "hanako.sato@example.com",
		Department: "Engineering",
	})
	if err != nil {
		t.Fatalf("RegisterManager error: %v", err)
	}

	employee, err := directorySvc.RegisterSubordinate(ctx, directory.RegisterSubordinateInput{
		FirstName:  "Taro",
		LastName:   "Yamada",
		Email:      "taro.yamada@example.com",
		Department: "Engineering",
		ManagerID:  manager.ID,
	})
	if err != nil {
		t.Fatalf("RegisterSubordinate error: %v", err)
	}

	resource, err := catalogSvc.CreateResource(ctx, catalog.CreateResourceInput{
		SchemaName:  "sales",
		TableName:   "orders",
		Description: "Customer orders",
	})
	if err != nil {
		t.Fatalf("CreateResource error: %v", err)
	}

	level, err := catalogSvc.CreateAccessLevel(ctx, catalog.CreateAccessLevelInput{
		Name:        "read-only",
		Description: "SELECT only",
	})
	if err != nil {
		t.Fatalf("CreateAccessLevel error: %v", err)
	}

	submitted, err := requestSvc.Submit(ctx, request.SubmitInput{
		RequesterID:   employee.ID,
		ResourceID:    resource.ID,
		LevelID:       level.ID,
		Justification: "Need read access for the quarterly revenue report.",
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if submitted.Status != request.StatusPending {
		t.Fatalf("expected pending status, got %s", submitted.Status)
	}

	// マネージャー以外の決裁は条件付き更新で弾かれます。
	if _, err := requestSvc.Decide(ctx, request.DecideInput{
		RequestID: submitted.ID,
		ActorID:   employee.ID,
		Decision:  request.DecisionApprove,
	}); !errors.Is(err, request.ErrNotDecidable) {
		t.Fatalf("expected ErrNotDecidable for non-manager, got %v", err)
	}

	approved, err := requestSvc.Decide(ctx, request.DecideInput{
		RequestID: submitted.ID,
		ActorID:   manager.ID,
		Decision:  request.DecisionApprove,
	})
	if err != nil {
		t.Fatalf("Decide error: %v", err)
	}
	if approved.Status != request.StatusApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}

	if _, err := requestSvc.Cancel(ctx, request.CancelInput{
		RequestID: submitted.ID,
		ActorID:   employee.ID,
	}); !errors.Is(err, request.ErrNotDecidable) {
		t.Fatalf("expected ErrNotDecidable after approval, got %v", err)
	}

	grants, err := requestSvc.ApprovedGrants(ctx)
	if err != nil {
		t.Fatalf("ApprovedGrants error: %v", err)
	}
	if len(grants) != 1 || grants[0].EmployeeEmail != employee.Email {
		t.Fatalf("unexpected grants: %+v", grants)
	}

	second, err := requestSvc.Submit(ctx, request.SubmitInput{
		RequesterID:   employee.ID,
		ResourceID:    resource.ID,
		LevelID:       level.ID,
		Justification: "Temporary access for the month-end close process.",
	})
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	cancelled, err := requestSvc.Cancel(ctx, request.CancelInput{
		RequestID: second.ID,
		ActorID:   employee.ID,
	})
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if !cancelled.IsCancelled() {
		t.Fatalf("expected requester cancellation, got %+v", cancelled)
	}
}

func resetMigrations(dsn, dir string) error {
	m, err := migrate.New("file://"+dir, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func configPathFromEnv() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "../assets/local.yaml"
}

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}
