// simulate drives concurrent traffic against the tool API and reports
// latency plus conflict counts. Its main job is adversarial: many workers
// race bookings onto the same small set of slots, and the final database
// check proves every slot was won by at most one appointment.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consultaja/clinic-scheduling/internal/config"
	"github.com/consultaja/clinic-scheduling/internal/db"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	BookRatio   float64
	CancelRatio float64
	ReadRatio   float64
	SlotLimit   int
	PostgresDSN string
}

type DataPool struct {
	Slots        []uuid.UUID
	Specialties  []string
	Doctors      []uuid.UUID
	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment() (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rand.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Book      OperationMetrics
	Cancel    OperationMetrics
	ListSlots OperationMetrics
	Weekly    OperationMetrics
	NextDay   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d book=%.2f cancel=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookRatio, cfg.CancelRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d free slots, %d specialties, %d doctors",
		len(dataPool.Slots), len(dataPool.Specialties), len(dataPool.Doctors))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	sim.Run()
	sim.PrintReport()

	if err := verifySingleWinner(context.Background(), pgPool); err != nil {
		log.Fatalf("consistency check FAILED: %v", err)
	}
	log.Println("consistency check passed: no slot holds more than one active appointment")
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getSimDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 16),
		BookRatio:   getFloat("SIM_BOOK_RATIO", 0.5),
		CancelRatio: getFloat("SIM_CANCEL_RATIO", 0.1),
		ReadRatio:   getFloat("SIM_READ_RATIO", 0.4),
		SlotLimit:   getInt("SIM_SLOT_LIMIT", 200),
		PostgresDSN: baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.BookRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	// A small slot set on purpose: the tighter the set, the harder the
	// booking race.
	rows, err := pool.Query(ctx, `
		SELECT id FROM slots
		WHERE status = 'free' AND start_at > now()
		ORDER BY start_at
		LIMIT $1
	`, cfg.SlotLimit)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Slots = append(dataPool.Slots, id)
	}

	rows, err = pool.Query(ctx, `SELECT name FROM specialties`)
	if err != nil {
		return nil, fmt.Errorf("load specialties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		dataPool.Specialties = append(dataPool.Specialties, name)
	}

	rows, err = pool.Query(ctx, `SELECT id FROM doctors`)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Doctors = append(dataPool.Doctors, id)
	}

	if len(dataPool.Slots) == 0 {
		return nil, fmt.Errorf("no free slots loaded, run the seeder first")
	}
	if len(dataPool.Specialties) == 0 {
		return nil, fmt.Errorf("no specialties loaded, run the seeder first")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookRatio:
				s.doBook(ctx, rng)
			case r < s.config.BookRatio+s.config.CancelRatio:
				s.doCancel(ctx, rng)
			default:
				switch rng.Intn(3) {
				case 0:
					s.doListSlots(ctx, rng)
				case 1:
					s.doWeeklyAgenda(ctx, rng)
				case 2:
					s.doNextAvailableDay(ctx, rng)
				}
			}
		}
	}
}

// toolResult is the envelope every tool returns.
type toolResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

func (s *Simulator) invoke(ctx context.Context, tool string, args map[string]any) (*toolResult, time.Duration, error) {
	body, _ := json.Marshal(map[string]any{"arguments": args})

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.APIBaseURL+"/v1/tools/"+tool, bytes.NewReader(body))
	if err != nil {
		return nil, time.Since(start), err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return nil, latency, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, latency, fmt.Errorf("%s returned %d: %s", tool, resp.StatusCode, raw)
	}

	var out toolResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, latency, err
	}
	return &out, latency, nil
}

func (s *Simulator) doBook(ctx context.Context, rng *rand.Rand) {
	slotID := s.pool.Slots[rng.Intn(len(s.pool.Slots))]
	specialty := s.pool.Specialties[rng.Intn(len(s.pool.Specialties))]

	args := map[string]any{
		"name":      fmt.Sprintf("Paciente Sim %04d", rng.Intn(10000)),
		"cpf":       "529.982.247-25",
		"birthdate": "17/05/1990",
		"specialty": specialty,
		"region":    "zona sul",
		"phone":     fmt.Sprintf("(11) 9%04d-%04d", rng.Intn(10000), rng.Intn(10000)),
		"email":     fmt.Sprintf("sim%d@example.com", rng.Intn(100000)),
		"slotId":    slotID.String(),
	}

	res, latency, err := s.invoke(ctx, "bookAppointment", args)
	if err != nil {
		s.metrics.Book.Record(latency, false, false)
		return
	}

	if res.OK {
		if id, parseErr := uuid.Parse(res.ID); parseErr == nil {
			s.pool.AddAppointment(id)
		}
		s.metrics.Book.Record(latency, true, false)
		return
	}
	// Losing the slot race is the expected failure mode here.
	conflict := strings.Contains(res.Message, "disponível")
	s.metrics.Book.Record(latency, false, conflict)
}

func (s *Simulator) doCancel(ctx context.Context, _ *rand.Rand) {
	apptID, ok := s.pool.GetRandomAppointment()
	if !ok {
		return
	}

	res, latency, err := s.invoke(ctx, "cancelAppointment", map[string]any{
		"appointmentId": apptID.String(),
	})
	if err != nil {
		s.metrics.Cancel.Record(latency, false, false)
		return
	}
	s.metrics.Cancel.Record(latency, res.OK, false)
}

func (s *Simulator) doListSlots(ctx context.Context, rng *rand.Rand) {
	specialty := s.pool.Specialties[rng.Intn(len(s.pool.Specialties))]

	res, latency, err := s.invoke(ctx, "listSpecialtySlots", map[string]any{
		"specialtyName": specialty,
	})
	if err != nil {
		s.metrics.ListSlots.Record(latency, false, false)
		return
	}
	s.metrics.ListSlots.Record(latency, res.OK, false)
}

func (s *Simulator) doWeeklyAgenda(ctx context.Context, rng *rand.Rand) {
	if len(s.pool.Doctors) == 0 {
		return
	}
	doctorID := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]

	res, latency, err := s.invoke(ctx, "weeklyDoctorAgenda", map[string]any{
		"doctorId": doctorID.String(),
	})
	if err != nil {
		s.metrics.Weekly.Record(latency, false, false)
		return
	}
	s.metrics.Weekly.Record(latency, res.OK, false)
}

func (s *Simulator) doNextAvailableDay(ctx context.Context, rng *rand.Rand) {
	specialty := s.pool.Specialties[rng.Intn(len(s.pool.Specialties))]

	res, latency, err := s.invoke(ctx, "nextAvailableSpecialtyDay", map[string]any{
		"specialtyName": specialty,
	})
	if err != nil {
		s.metrics.NextDay.Record(latency, false, false)
		return
	}
	s.metrics.NextDay.Record(latency, res.OK, false)
}

// verifySingleWinner asserts the core invariant after the race: a slot never
// holds more than one non-canceled appointment.
func verifySingleWinner(ctx context.Context, pool *pgxpool.Pool) error {
	row := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM (
			SELECT slot_id
			FROM appointments
			WHERE status <> 'canceled'
			GROUP BY slot_id
			HAVING count(*) > 1
		) dup
	`)

	var duplicated int
	if err := row.Scan(&duplicated); err != nil {
		return fmt.Errorf("scan duplicate count: %w", err)
	}
	if duplicated > 0 {
		return fmt.Errorf("%d slots hold more than one active appointment", duplicated)
	}
	return nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Book", &s.metrics.Book)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("List Specialty Slots", &s.metrics.ListSlots)
	printOperationReport("Weekly Agenda", &s.metrics.Weekly)
	printOperationReport("Next Available Day", &s.metrics.NextDay)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getSimDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
