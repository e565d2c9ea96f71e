package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"gorm.io/gorm/clause"

	"github.com/yakgung/drugfood-guard/backend/config"
	"github.com/yakgung/drugfood-guard/backend/internal/database"
	"github.com/yakgung/drugfood-guard/backend/internal/models"
)

const defaultAPIURL = "http://apis.data.go.kr/1471000/DrbEasyDrugInfoService/getDrbEasyDrugList"

// pageDelay spaces out requests to the public API.
const pageDelay = 500 * time.Millisecond

type drugItem struct {
	ItemName   string `json:"itemName"`
	EntpName   string `json:"entpName"`
	Efficacy   string `json:"efcyQesitm"`
	UseMethod  string `json:"useMethodQesitm"`
	Warning    string `json:"atpnQesitm"`
	Interact   string `json:"intrcQesitm"`
	SideEffect string `json:"seQesitm"`
}

type apiResponse struct {
	Body struct {
		TotalCount int        `json:"totalCount"`
		Items      []drugItem `json:"items"`
	} `json:"body"`
}

// Collects the public easy-drug-info dataset page by page, upserts each
// drug into the catalog and optionally archives the raw pages to S3.
func main() {
	numOfRows := flag.Int("rows", 100, "items per page")
	maxPages := flag.Int("max-pages", 0, "stop after this many pages (0 = all)")
	archive := flag.Bool("archive", false, "archive raw pages to S3")
	flag.Parse()

	apiURL := os.Getenv("DRUG_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	serviceKey := os.Getenv("DRUG_API_KEY")
	if serviceKey == "" {
		log.Fatal("DRUG_API_KEY environment variable is not set")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db, "migrations"); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx := context.Background()

	var s3cfg *config.S3Config
	if *archive {
		s3cfg, err = config.NewS3Config(ctx, cfg.DatasetBucket)
		if err != nil {
			log.Fatalf("failed to initialize S3: %v", err)
		}
	}

	client := &http.Client{Timeout: 10 * time.Second}
	runStamp := time.Now().Format("2006-01-02")

	pageNo := 1
	totalCount := 0
	collected := 0
	for {
		log.Printf("fetching page %d", pageNo)

		raw, resp, err := fetchPage(ctx, client, apiURL, serviceKey, pageNo, *numOfRows)
		if err != nil {
			log.Fatalf("failed to fetch page %d: %v", pageNo, err)
		}
		if len(resp.Body.Items) == 0 {
			log.Println("no more items")
			break
		}
		if pageNo == 1 {
			totalCount = resp.Body.TotalCount
			log.Printf("total items available: %d", totalCount)
		}

		if s3cfg != nil {
			key := fmt.Sprintf("raw/%s/drugs_page_%d.json", runStamp, pageNo)
			location, err := s3cfg.UploadDataset(ctx, key, raw)
			if err != nil {
				log.Fatalf("failed to archive page %d: %v", pageNo, err)
			}
			log.Printf("archived %s", location)
		}

		for _, item := range resp.Body.Items {
			if item.ItemName == "" {
				continue
			}
			drug := models.Drug{
				Name:        item.ItemName,
				Description: item.Efficacy,
			}
			err := db.WithContext(ctx).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"description", "updated_at"}),
			}).Create(&drug).Error
			if err != nil {
				log.Fatalf("failed to upsert drug %q: %v", item.ItemName, err)
			}
		}

		collected += len(resp.Body.Items)
		log.Printf("collected %d/%d", collected, totalCount)

		if collected >= totalCount {
			break
		}
		if *maxPages > 0 && pageNo >= *maxPages {
			log.Printf("stopping at page limit %d", *maxPages)
			break
		}

		pageNo++
		time.Sleep(pageDelay)
	}

	log.Printf("collection complete, %d drugs processed", collected)
}

func fetchPage(ctx context.Context, client *http.Client, apiURL, serviceKey string, pageNo, numOfRows int) ([]byte, *apiResponse, error) {
	params := url.Values{}
	params.Set("serviceKey", serviceKey)
	params.Set("pageNo", fmt.Sprint(pageNo))
	params.Set("numOfRows", fmt.Sprint(numOfRows))
	params.Set("type", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return raw, &parsed, nil
}
