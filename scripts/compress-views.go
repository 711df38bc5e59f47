// Command compress-views rolls raw view events into daily aggregates for a
// date range. Useful for backfilling after the nightly job was down:
//
//	go run scripts/compress-views.go -date 2024-06-10 -days 3
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/karnoweb/viewable/internal/calendar"
	"github.com/karnoweb/viewable/internal/compress"
	"github.com/karnoweb/viewable/internal/metrics"
	"github.com/karnoweb/viewable/internal/repository"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		dateInput   = flag.String("date", "", "Last day to compress, YYYY-MM-DD (default yesterday)")
		days        = flag.Int("days", 1, "Number of days to compress, ending at -date")
		chunk       = flag.Int("chunk", 1000, "Groups per upsert batch")
		timezone    = flag.String("timezone", "UTC", "Timezone for day boundaries")
		weekStart   = flag.Int("week-start", 6, "First day of week, 0=Sunday .. 6=Saturday")
		pruneDays   = flag.Int("prune-days", 0, "Also delete raw events older than this many days, skipping aggregation (0 disables)")
		verbose     = flag.Bool("verbose", false, "Log each compression run")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *days < 1 {
		fmt.Fprintln(os.Stderr, "-days must be at least 1")
		os.Exit(1)
	}

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid timezone:", err)
		os.Exit(1)
	}

	last := time.Now().In(loc).AddDate(0, 0, -1)
	if *dateInput != "" {
		last, err = time.ParseInLocation("2006-01-02", *dateInput, loc)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid date, expected YYYY-MM-DD:", err)
			os.Exit(1)
		}
	}

	logOutput := io.Discard
	if *verbose {
		logOutput = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOutput, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	calendars := calendar.NewManager(calendar.Gregorian, loc, time.Weekday(*weekStart))
	events := repository.NewViewEventRepository(repo)
	engine := compress.NewEngine(
		events,
		repository.NewAggregateRepository(repo),
		calendars,
		*chunk,
		logger,
		metrics.NewNoop(),
	)

	failed := false
	for i := *days - 1; i >= 0; i-- {
		day := last.AddDate(0, 0, -i)
		result, err := engine.CompressDay(ctx, day, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: compression failed: %v\n", day.Format("2006-01-02"), err)
			failed = true
			continue
		}
		fmt.Printf("%s: %d groups compressed, %d raw events deleted\n",
			day.Format("2006-01-02"), result.GroupsProcessed, result.RowsDeleted)
	}
	if *pruneDays > 0 {
		cutoff := time.Now().In(loc).AddDate(0, 0, -*pruneDays)
		pruned, err := events.PruneOlderThan(ctx, cutoff)
		if err != nil {
			fmt.Fprintln(os.Stderr, "prune failed:", err)
			failed = true
		} else {
			fmt.Printf("pruned %d raw events older than %s\n", pruned, cutoff.Format("2006-01-02"))
		}
	}

	if failed {
		os.Exit(1)
	}
}
