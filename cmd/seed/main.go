// Command seed populates a running ClubHub server with club data.
//
// With -file it POSTs each club from a JSON array (the scraped campus club
// dump); without it, it generates -count sample clubs so a fresh install
// has something to browse.
//
// Usage:
//
//	seed -url http://localhost:8080 -file clubs.json
//	seed -url http://localhost:8080 -count 25
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/sakif/clubhub/internal/service"
)

func main() {
	url := flag.String("url", "http://localhost:8080", "base URL of the ClubHub server")
	file := flag.String("file", "", "path to a JSON array of clubs; omit to generate sample data")
	count := flag.Int("count", 25, "number of sample clubs to generate when -file is not given")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	clubs, err := loadClubs(*file, *count)
	if err != nil {
		logger.Error("loading club data", slog.String("error", err.Error()))
		os.Exit(1)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	ok := 0
	for _, club := range clubs {
		if err := postClub(client, *url, club); err != nil {
			logger.Warn("club rejected",
				slog.String("name", club.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		ok++
	}

	logger.Info("seeding finished", slog.Int("loaded", ok), slog.Int("total", len(clubs)))
}

func loadClubs(file string, count int) ([]service.CreateClubInput, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		var clubs []service.CreateClubInput
		if err := json.Unmarshal(data, &clubs); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		return clubs, nil
	}

	levels := []string{"Beginner", "Intermediate", "Advanced", "All levels"}
	categories := []string{"Games", "Sports", "Music", "Tech", "Arts", "Service"}

	clubs := make([]service.CreateClubInput, count)
	for i := range clubs {
		href := gofakeit.URL()
		required := gofakeit.Bool()
		clubs[i] = service.CreateClubInput{
			Name:        gofakeit.Company() + " Club",
			Description: gofakeit.Sentence(12),
			Level:       gofakeit.RandomString(levels),
			Category:    gofakeit.RandomString(categories),
			Href:        &href,
		}
		// Leave application_required unspecified on a third of the sample.
		if gofakeit.Number(0, 2) > 0 {
			clubs[i].ApplicationRequired = &required
		}
	}
	return clubs, nil
}

func postClub(client *http.Client, baseURL string, club service.CreateClubInput) error {
	body, err := json.Marshal(club)
	if err != nil {
		return err
	}

	resp, err := client.Post(baseURL+"/api/clubs", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}
