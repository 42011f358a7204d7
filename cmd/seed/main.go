package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"noor-community/internal/config"
	"noor-community/internal/domain/model"
	"noor-community/internal/domain/ports/repository"
	pg "noor-community/internal/infra/db/postgres"
)

// Applies the schema and seeds a small, predictable data set for
// manual testing: two redemption codes and one public group.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	schemaPath := flag.String("schema", "db/schema.sql", "path to schema file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// Apply schema. Simple protocol so the multi-statement file runs
	// in one round trip.
	schema, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("read schema: %v", err)
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatalf("acquire conn: %v", err)
	}
	if _, err := conn.Conn().PgConn().Exec(ctx, string(schema)).ReadAll(); err != nil {
		conn.Release()
		log.Fatalf("apply schema: %v", err)
	}
	conn.Release()
	fmt.Println("schema applied")

	codeRepo := pg.NewRedemptionCodeRepo(pool)
	groupRepo := pg.NewGroupRepo(pool)
	memberRepo := pg.NewMembershipRepo(pool)

	// If codes already exist, do nothing.
	if existing, err := codeRepo.FindByCode(ctx, repository.NoTX, "WELCOME-2026-NOOR"); err == nil && existing != nil {
		fmt.Println("seed data already present. No changes.")
		return
	}

	limit := 100
	expiry := time.Now().Add(90 * 24 * time.Hour)
	seedCodes := []struct {
		code      string
		kind      model.CodeKind
		limit     *int
		expiresAt *time.Time
	}{
		{"WELCOME-2026-NOOR", model.CodeKindDiscount, &limit, &expiry},
		{"INVITE-OPEN-DOOR", model.CodeKindInvitation, nil, nil},
	}

	creator := "seed"
	for _, s := range seedCodes {
		rc, err := model.NewRedemptionCode("", s.code, s.kind, s.limit, s.expiresAt, &creator)
		if err != nil {
			log.Fatalf("build code %q: %v", s.code, err)
		}
		if err := codeRepo.Save(ctx, repository.NoTX, rc); err != nil {
			log.Fatalf("save code %q: %v", s.code, err)
		}
		fmt.Printf("seeded code: %s (kind=%s)\n", rc.Code, rc.Kind)
	}

	group, err := model.NewGroup("", "Morning Readers", "Daily reading circle, all levels welcome.", "seed-admin", "MORNINGS", model.GroupTypePublic, 5)
	if err != nil {
		log.Fatalf("build group: %v", err)
	}
	group.MemberCount = 1 // seed admin below
	if err := groupRepo.Save(ctx, repository.NoTX, group); err != nil {
		log.Fatalf("save group: %v", err)
	}
	admin, err := model.NewMembership("", group.ID, "seed-admin", true)
	if err != nil {
		log.Fatalf("build membership: %v", err)
	}
	if err := memberRepo.Insert(ctx, repository.NoTX, admin); err != nil {
		log.Fatalf("save membership: %v", err)
	}
	fmt.Printf("seeded group: %s (invite=%s)\n", group.Name, group.InviteCode)

	fmt.Println("seeding complete")
}
