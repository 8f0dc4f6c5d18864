package gormstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jkaninda/ligi/internal/docstore"
	"github.com/jkaninda/ligi/internal/identity"
	"github.com/jkaninda/ligi/internal/league"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func seedLeague(t *testing.T, db *gorm.DB) (league.Team, league.Student) {
	t.Helper()
	ctx := context.Background()
	teams := NewTeamRepository(db)
	students := NewStudentRepository(db)

	team := league.Team{Name: "Lions FC"}
	if err := teams.Create(ctx, &team); err != nil {
		t.Fatalf("creating team: %v", err)
	}
	student := league.Student{Name: "Mark Anthony", Grade: 1, TeamID: team.ID, ClassID: 1}
	if err := students.Create(ctx, &student); err != nil {
		t.Fatalf("creating student: %v", err)
	}
	return team, student
}

// --- Teams and students ---

func TestTeamRepository_ListByPoints(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewTeamRepository(db)

	for _, tm := range []league.Team{
		{Name: "Eagles United", Points: 120},
		{Name: "Lions FC", Points: 270},
		{Name: "Sharks SC", Points: 180},
	} {
		team := tm
		if err := repo.Create(ctx, &team); err != nil {
			t.Fatalf("creating team: %v", err)
		}
	}

	teams, err := repo.ListByPoints(ctx)
	if err != nil {
		t.Fatalf("listing teams: %v", err)
	}
	if len(teams) != 3 {
		t.Fatalf("expected 3 teams, got %d", len(teams))
	}
	if teams[0].Name != "Lions FC" || teams[2].Name != "Eagles United" {
		t.Errorf("wrong standings order: %s .. %s", teams[0].Name, teams[2].Name)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("counting: %v", err)
	}
	if n != 3 {
		t.Errorf("expected count 3, got %d", n)
	}
}

func TestStudentRepository_RankedByPoints(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	teams := NewTeamRepository(db)
	students := NewStudentRepository(db)

	team := league.Team{Name: "Lions FC"}
	if err := teams.Create(ctx, &team); err != nil {
		t.Fatalf("creating team: %v", err)
	}
	for i, pts := range []int{150, 200, 120} {
		s := league.Student{Name: fmt.Sprintf("S%d", i), TeamID: team.ID, ClassID: 1, Points: pts}
		if err := students.Create(ctx, &s); err != nil {
			t.Fatalf("creating student: %v", err)
		}
	}

	ranked, err := students.RankedByPoints(ctx, 2)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 students, got %d", len(ranked))
	}
	if ranked[0].Points != 200 {
		t.Errorf("expected top points 200, got %d", ranked[0].Points)
	}
	if ranked[0].TeamName != "Lions FC" {
		t.Errorf("expected joined team name, got %q", ranked[0].TeamName)
	}

	total, err := students.TotalPoints(ctx)
	if err != nil {
		t.Fatalf("summing: %v", err)
	}
	if total != 470 {
		t.Errorf("expected total 470, got %d", total)
	}
}

func TestStudentRepository_GetMissing(t *testing.T) {
	db := testDB(t)
	students := NewStudentRepository(db)

	_, err := students.Get(context.Background(), 999)
	if !errors.Is(err, league.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStudentRepository_ListByClass(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_, student := seedLeague(t, db)
	students := NewStudentRepository(db)

	other := league.Student{Name: "Other Class", TeamID: student.TeamID, ClassID: 2}
	if err := students.Create(ctx, &other); err != nil {
		t.Fatalf("creating student: %v", err)
	}

	got, err := students.ListByClass(ctx, 1)
	if err != nil {
		t.Fatalf("listing class: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Mark Anthony" {
		t.Errorf("expected only class 1 students, got %+v", got)
	}
}

// --- Points ---

func TestPointsRepository_AwardUpdatesStudentAndTeam(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	team, student := seedLeague(t, db)
	points := NewPointsRepository(db)

	entry := league.PointsEntry{StudentID: student.ID, Points: 25, Reason: "memory verse", Date: "2026-03-01", Approved: true}
	if err := points.Award(ctx, &entry); err != nil {
		t.Fatalf("awarding: %v", err)
	}
	if entry.ID == 0 {
		t.Error("expected log entry ID to be assigned")
	}

	got, err := NewStudentRepository(db).Get(ctx, student.ID)
	if err != nil {
		t.Fatalf("getting student: %v", err)
	}
	if got.Points != 25 {
		t.Errorf("expected student points 25, got %d", got.Points)
	}

	teams, err := NewTeamRepository(db).ListByPoints(ctx)
	if err != nil {
		t.Fatalf("listing teams: %v", err)
	}
	if teams[0].ID != team.ID || teams[0].Points != 25 {
		t.Errorf("expected team points 25, got %d", teams[0].Points)
	}

	// An approved award never shows up as pending.
	pending, err := points.PendingApprovals(ctx)
	if err != nil {
		t.Fatalf("counting pending: %v", err)
	}
	if pending != 0 {
		t.Errorf("expected no pending approvals, got %d", pending)
	}
}

func TestPointsRepository_PendingApprovals(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_, student := seedLeague(t, db)
	points := NewPointsRepository(db)

	approved := league.PointsEntry{StudentID: student.ID, Points: 10, Reason: "attendance", Date: "2026-03-01", Approved: true}
	if err := points.Award(ctx, &approved); err != nil {
		t.Fatalf("awarding: %v", err)
	}
	flagged := league.PointsEntry{StudentID: student.ID, Points: 50, Reason: "tournament", Date: "2026-03-02"}
	if err := points.Award(ctx, &flagged); err != nil {
		t.Fatalf("awarding: %v", err)
	}

	pending, err := points.PendingApprovals(ctx)
	if err != nil {
		t.Fatalf("counting pending: %v", err)
	}
	if pending != 1 {
		t.Errorf("expected 1 pending approval, got %d", pending)
	}
}

func TestPointsRepository_AwardMissingStudent(t *testing.T) {
	db := testDB(t)
	points := NewPointsRepository(db)

	entry := league.PointsEntry{StudentID: 999, Points: 10}
	err := points.Award(context.Background(), &entry)
	if !errors.Is(err, league.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Nothing was logged.
	pending, err := points.PendingApprovals(context.Background())
	if err != nil {
		t.Fatalf("counting pending: %v", err)
	}
	if pending != 0 {
		t.Errorf("expected no pending entries after rollback, got %d", pending)
	}
}

// --- Attendance and follow-ups ---

func TestAttendanceRepository_RecordAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_, student := seedLeague(t, db)
	attendance := NewAttendanceRepository(db)

	rec := league.AttendanceRecord{StudentID: student.ID, Date: "2026-03-01", Type: league.AttendanceLesson, Status: 1}
	if err := attendance.Record(ctx, &rec); err != nil {
		t.Fatalf("recording: %v", err)
	}

	missing := league.AttendanceRecord{StudentID: 999, Date: "2026-03-01", Type: league.AttendanceMass}
	if err := attendance.Record(ctx, &missing); !errors.Is(err, league.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing student, got %v", err)
	}

	got, err := attendance.ListByStudent(ctx, student.ID)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(got) != 1 || got[0].Type != league.AttendanceLesson {
		t.Errorf("unexpected attendance listing: %+v", got)
	}
}

func TestFollowUpRepository_CreateAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_, student := seedLeague(t, db)
	followUps := NewFollowUpRepository(db)

	f := league.FollowUp{StudentID: student.ID, ServantUID: "uid-1", Date: "2026-03-02", Notes: "called home"}
	if err := followUps.Create(ctx, &f); err != nil {
		t.Fatalf("creating follow-up: %v", err)
	}

	got, err := followUps.ListByStudent(ctx, student.ID)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(got) != 1 || got[0].ServantUID != "uid-1" {
		t.Errorf("unexpected follow-up listing: %+v", got)
	}
}

// --- Identities ---

func TestIdentityRepository_CreateAndVerify(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ids := NewIdentityRepository(db, 4) // Low cost keeps the test fast.

	uid, err := ids.Create(ctx, "servantEdady1@e3dady.com", "s3cretA1!", "servantEdady1")
	if err != nil {
		t.Fatalf("creating identity: %v", err)
	}
	if uid == "" {
		t.Fatal("expected non-empty uid")
	}

	rec, err := ids.VerifyPassword(ctx, "servantEdady1@e3dady.com", "s3cretA1!")
	if err != nil {
		t.Fatalf("verifying password: %v", err)
	}
	if rec.UID != uid {
		t.Errorf("expected uid %s, got %s", uid, rec.UID)
	}

	if _, err := ids.VerifyPassword(ctx, "servantEdady1@e3dady.com", "wrong"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := ids.VerifyPassword(ctx, "nobody@e3dady.com", "x"); !errors.Is(err, identity.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIdentityRepository_Claims(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ids := NewIdentityRepository(db, 4)

	uid, err := ids.Create(ctx, "adminEdady1@e3dady.com", "pw", "adminEdady1")
	if err != nil {
		t.Fatalf("creating identity: %v", err)
	}

	classID := 3
	if err := ids.SetClaims(ctx, uid, identity.Claims{Role: identity.RoleServant, ClassID: &classID}); err != nil {
		t.Fatalf("setting claims: %v", err)
	}

	rec, err := ids.GetByUID(ctx, uid)
	if err != nil {
		t.Fatalf("getting identity: %v", err)
	}
	if rec.Claims.Role != identity.RoleServant {
		t.Errorf("expected servant role, got %q", rec.Claims.Role)
	}
	if rec.Claims.ClassID == nil || *rec.Claims.ClassID != 3 {
		t.Errorf("expected class_id 3, got %v", rec.Claims.ClassID)
	}

	// Claims replacement is wholesale: the class id must not survive.
	if err := ids.SetClaims(ctx, uid, identity.Claims{Role: identity.RoleAdmin}); err != nil {
		t.Fatalf("replacing claims: %v", err)
	}
	rec, err = ids.GetByUID(ctx, uid)
	if err != nil {
		t.Fatalf("getting identity: %v", err)
	}
	if rec.Claims.Role != identity.RoleAdmin || rec.Claims.ClassID != nil {
		t.Errorf("expected admin claims without class_id, got %+v", rec.Claims)
	}

	if err := ids.SetClaims(ctx, "missing", identity.Claims{Role: identity.RoleAdmin}); !errors.Is(err, identity.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIdentityRepository_ListPagination(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ids := NewIdentityRepository(db, 4)

	for i := 0; i < 5; i++ {
		if _, err := ids.Create(ctx, fmt.Sprintf("user%d@e3dady.com", i), "pw", fmt.Sprintf("user%d", i)); err != nil {
			t.Fatalf("creating identity: %v", err)
		}
	}

	seen := make(map[string]bool)
	token := ""
	pages := 0
	for {
		page, err := ids.List(ctx, 2, token)
		if err != nil {
			t.Fatalf("listing: %v", err)
		}
		pages++
		for _, rec := range page.Records {
			if seen[rec.UID] {
				t.Errorf("uid %s seen twice", rec.UID)
			}
			seen[rec.UID] = true
		}
		if page.Token == "" {
			break
		}
		token = page.Token
		if pages > 10 {
			t.Fatal("pagination did not terminate")
		}
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 identities across pages, got %d", len(seen))
	}
}

func TestIdentityRepository_Delete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	ids := NewIdentityRepository(db, 4)

	uid, err := ids.Create(ctx, "gone@e3dady.com", "pw", "gone")
	if err != nil {
		t.Fatalf("creating identity: %v", err)
	}
	if err := ids.Delete(ctx, uid); err != nil {
		t.Fatalf("deleting: %v", err)
	}
	if _, err := ids.GetByUID(ctx, uid); !errors.Is(err, identity.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound after delete, got %v", err)
	}
	if err := ids.Delete(ctx, uid); !errors.Is(err, identity.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound on double delete, got %v", err)
	}
}

// --- Documents ---

func TestDocumentRepository_SetPreservesCreatedAt(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	docs := NewDocumentRepository(db)

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	classID := 1
	doc := docstore.Document{
		UID: "uid-1", Username: "servantEdady1", Email: "servantEdady1@e3dady.com",
		Role: identity.RoleServant, ClassID: &classID, Status: "created",
		CreatedAt: created, UpdatedAt: created,
	}
	if err := docs.Set(ctx, docstore.CollectionServants, &doc); err != nil {
		t.Fatalf("setting document: %v", err)
	}

	// Re-sync: status flips, CreatedAt must survive.
	later := created.Add(48 * time.Hour)
	update := doc
	update.Status = "existing"
	update.CreatedAt = later
	update.UpdatedAt = later
	if err := docs.Set(ctx, docstore.CollectionServants, &update); err != nil {
		t.Fatalf("updating document: %v", err)
	}

	got, err := docs.Get(ctx, docstore.CollectionServants, "uid-1")
	if err != nil {
		t.Fatalf("getting document: %v", err)
	}
	if got.Status != "existing" {
		t.Errorf("expected updated status, got %q", got.Status)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("expected CreatedAt %v to survive re-sync, got %v", created, got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Errorf("expected UpdatedAt %v, got %v", later, got.UpdatedAt)
	}
}

func TestDocumentRepository_DeleteByRole(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	docs := NewDocumentRepository(db)

	now := time.Now().UTC()
	for i, role := range []string{identity.RoleStudent, identity.RoleStudent, identity.RoleServant} {
		doc := docstore.Document{
			UID: fmt.Sprintf("uid-%d", i), Username: fmt.Sprintf("u%d", i),
			Email: fmt.Sprintf("u%d@e3dady.com", i), Role: role, Status: "existing",
			CreatedAt: now, UpdatedAt: now,
		}
		if err := docs.Set(ctx, docstore.CollectionUsers, &doc); err != nil {
			t.Fatalf("setting document: %v", err)
		}
	}

	n, err := docs.DeleteByRole(ctx, docstore.CollectionUsers, identity.RoleStudent)
	if err != nil {
		t.Fatalf("deleting by role: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}

	remaining, err := docs.List(ctx, docstore.CollectionUsers)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Role != identity.RoleServant {
		t.Errorf("expected one servant document left, got %+v", remaining)
	}
}

// --- Seed ---

func TestSeedDemo_Idempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := SeedDemo(ctx, db); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	if err := SeedDemo(ctx, db); err != nil {
		t.Fatalf("re-seeding: %v", err)
	}

	teams, err := NewTeamRepository(db).ListByPoints(ctx)
	if err != nil {
		t.Fatalf("listing teams: %v", err)
	}
	if len(teams) != 3 {
		t.Fatalf("expected 3 seeded teams, got %d", len(teams))
	}
	// Lions carry Mark (150) and Sarah (120).
	if teams[0].Name != "Lions FC" || teams[0].Points != 270 {
		t.Errorf("expected Lions FC with 270 points on top, got %s with %d", teams[0].Name, teams[0].Points)
	}

	n, err := NewStudentRepository(db).Count(ctx)
	if err != nil {
		t.Fatalf("counting students: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 seeded students, got %d", n)
	}
}
