package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/consultaja/clinic-scheduling/internal/db"
)

// Clinic hours for generated slots, in the clinic time zone.
const (
	firstSlotHour = 8
	lastSlotHour  = 18
	slotMinutes   = 30
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	_ = godotenv.Load()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	tzName := os.Getenv("CLINIC_TZ")
	if tzName == "" {
		tzName = "America/Sao_Paulo"
	}
	clinicTZ, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatalf("load clinic tz: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	specialtyIDs, err := seedSpecialties(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed specialties: %v", err)
	}
	doctorIDs, err := seedDoctors(context.Background(), pool, specialtyIDs, 60)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedSlots(context.Background(), pool, doctorIDs, clinicTZ, 14); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedSpecialties(ctx context.Context, pool *pgxpool.Pool) ([]uuid.UUID, error) {
	names := []string{
		"Cardiologia",
		"Dermatologia",
		"Clínica Geral",
		"Ortopedia",
		"Endocrinologia",
		"Neurologia",
		"Pediatria",
		"Psiquiatria",
		"Oftalmologia",
		"Otorrinolaringologia",
		"Ginecologia",
		"Urologia",
	}
	log.Printf("seeding %d specialties", len(names))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO specialties (id, name)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, id, name)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("specialties seeded")
	return ids, nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, specialtyIDs []uuid.UUID, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	titles := []string{"Dr.", "Dra."}
	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := titles[gofakeit.Number(0, 1)] + " " + gofakeit.Name()
		spec := specialtyIDs[gofakeit.Number(0, len(specialtyIDs)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty_id)
			VALUES ($1, $2, $3)
		`, id, name, spec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("doctors seeded")
	return ids, nil
}

// seedSlots fills the next `days` civil days with a random subset of the
// clinic grid for every doctor, starting tomorrow.
func seedSlots(ctx context.Context, pool *pgxpool.Pool, doctorIDs []uuid.UUID, clinicTZ *time.Location, days int) error {
	log.Printf("seeding slots for %d doctors over %d days", len(doctorIDs), days)

	const batchSize = 500
	now := time.Now().In(clinicTZ)

	type pending struct {
		doctorID uuid.UUID
		startAt  time.Time
	}
	var queue []pending

	for _, doctorID := range doctorIDs {
		for d := 1; d <= days; d++ {
			day := now.AddDate(0, 0, d)
			if day.Weekday() == time.Sunday {
				continue
			}
			for hour := firstSlotHour; hour < lastSlotHour; hour++ {
				for _, minute := range []int{0, slotMinutes} {
					// Sparse agendas read more realistically than full grids.
					if gofakeit.Number(0, 99) < 60 {
						continue
					}
					start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, clinicTZ)
					queue = append(queue, pending{doctorID: doctorID, startAt: start.UTC()})
				}
			}
		}
	}

	for offset := 0; offset < len(queue); offset += batchSize {
		end := offset + batchSize
		if end > len(queue) {
			end = len(queue)
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for _, p := range queue[offset:end] {
			_, err := tx.Exec(ctx, `
				INSERT INTO slots (id, doctor_id, start_at, duration_minutes, status, updated_at)
				VALUES ($1, $2, $3, $4, 'free', now())
				ON CONFLICT (doctor_id, start_at) DO NOTHING
			`, uuid.New(), p.doctorID, p.startAt, slotMinutes)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("slots seeded: %d/%d", end, len(queue))
	}

	log.Println("slots seeded")
	return nil
}
