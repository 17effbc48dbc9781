package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regintel/internal/models"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const fdaPageSize = 100

type FDASyncConfig struct {
	BaseURL  string
	APIKey   string
	Search   string
	MaxPages int
}

// FDASyncService 从 openFDA 企业注册与器械列名接口同步企业目录
type FDASyncService struct {
	db        *gorm.DB
	client    *http.Client
	cfg       FDASyncConfig
	timeout   time.Duration
	afterSync func()
}

func NewFDASyncService(db *gorm.DB, client *http.Client, cfg FDASyncConfig, timeout time.Duration, afterSync func()) *FDASyncService {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &FDASyncService{
		db:        db,
		client:    client,
		cfg:       cfg,
		timeout:   timeout,
		afterSync: afterSync,
	}
}

type fdaResponse struct {
	Meta struct {
		Results struct {
			Skip  int `json:"skip"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		} `json:"results"`
	} `json:"meta"`
	Results []fdaRegistrationListing `json:"results"`
}

type fdaRegistrationListing struct {
	Registration struct {
		RegistrationNumber string `json:"registration_number"`
		FEINumber          string `json:"fei_number"`
		Name               string `json:"name"`
		AddressLine1       string `json:"address_line_1"`
		City               string `json:"city"`
		StateCode          string `json:"state_code"`
		ISOCountryCode     string `json:"iso_country_code"`
	} `json:"registration"`
	Products []struct {
		ProductCode string `json:"product_code"`
		OpenFDA     struct {
			DeviceClass string `json:"device_class"`
		} `json:"openfda"`
	} `json:"products"`
}

// Run performs one full sync pass and records it as a SyncRun. A failed pass
// keeps whatever pages were already upserted.
func (s *FDASyncService) Run(ctx context.Context) (*models.SyncRun, error) {
	run := &models.SyncRun{StartedAt: time.Now(), Status: models.SyncStatusRunning}
	if err := s.save(ctx, run, true); err != nil {
		return nil, err
	}

	syncErr := s.syncPages(ctx, run)

	finished := time.Now()
	run.FinishedAt = &finished
	run.Status = models.SyncStatusOK
	if syncErr != nil {
		run.Status = models.SyncStatusFailed
		run.Error = syncErr.Error()
	}
	if err := s.save(ctx, run, false); err != nil {
		log.Printf("[Sync] 保存同步记录失败 (run=%d): %v", run.ID, err)
	}

	if run.Upserted > 0 && s.afterSync != nil {
		s.afterSync()
	}

	log.Printf("[Sync] run=%d status=%s fetched=%d upserted=%d", run.ID, run.Status, run.Fetched, run.Upserted)
	return run, syncErr
}

func (s *FDASyncService) save(ctx context.Context, run *models.SyncRun, create bool) error {
	// the run row is written even when the request context is already done
	ctx, cancel := withTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	tx := s.db.WithContext(ctx)
	if create {
		return storageErr("create sync run", tx.Create(run).Error)
	}
	return storageErr("update sync run", tx.Save(run).Error)
}

func (s *FDASyncService) syncPages(ctx context.Context, run *models.SyncRun) error {
	for page := 0; page < s.cfg.MaxPages; page++ {
		skip := page * fdaPageSize
		resp, err := s.fetchPage(ctx, skip)
		if err != nil {
			return err
		}
		if resp == nil || len(resp.Results) == 0 {
			return nil
		}
		run.Fetched += len(resp.Results)

		n, err := s.upsertCompanies(ctx, resp.Results)
		if err != nil {
			return err
		}
		run.Upserted += n

		if skip+len(resp.Results) >= resp.Meta.Results.Total {
			return nil
		}
	}
	return nil
}

// fetchPage returns nil when openFDA reports no (more) matching records.
func (s *FDASyncService) fetchPage(ctx context.Context, skip int) (*fdaResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(fdaPageSize))
	q.Set("skip", strconv.Itoa(skip))
	if s.cfg.Search != "" {
		q.Set("search", s.cfg.Search)
	}
	if s.cfg.APIKey != "" {
		q.Set("api_key", s.cfg.APIKey)
	}
	endpoint := s.cfg.BaseURL + "/device/registrationlisting.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: openFDA request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: openFDA status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out fdaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode openFDA response: %v", ErrUpstream, err)
	}
	return &out, nil
}

// toCompanies maps listings to companies, keeping the last listing per
// registration number; one INSERT cannot hit the same conflict key twice.
func toCompanies(listings []fdaRegistrationListing, now time.Time) []models.Company {
	byReg := make(map[string]int)
	companies := make([]models.Company, 0, len(listings))

	for _, l := range listings {
		reg := strings.TrimSpace(l.Registration.RegistrationNumber)
		name := strings.TrimSpace(l.Registration.Name)
		if reg == "" || name == "" {
			continue
		}

		codes := make([]string, 0, len(l.Products))
		seen := make(map[string]bool)
		deviceClass := ""
		for _, p := range l.Products {
			if p.ProductCode != "" && !seen[p.ProductCode] {
				seen[p.ProductCode] = true
				codes = append(codes, p.ProductCode)
			}
			// highest regulatory class wins; "U", "N" and "f" are unclassified
			if dc := p.OpenFDA.DeviceClass; dc >= "1" && dc <= "3" && dc > deviceClass {
				deviceClass = dc
			}
		}
		sort.Strings(codes)

		syncedAt := now
		c := models.Company{
			Name:               name,
			RegistrationNumber: reg,
			FEINumber:          l.Registration.FEINumber,
			Address:            l.Registration.AddressLine1,
			City:               l.Registration.City,
			State:              l.Registration.StateCode,
			Country:            l.Registration.ISOCountryCode,
			ProductCodes:       strings.Join(codes, ","),
			DeviceClass:        deviceClass,
			SyncedAt:           &syncedAt,
		}
		if i, ok := byReg[reg]; ok {
			companies[i] = c
			continue
		}
		byReg[reg] = len(companies)
		companies = append(companies, c)
	}
	return companies
}

func (s *FDASyncService) upsertCompanies(ctx context.Context, listings []fdaRegistrationListing) (int, error) {
	companies := toCompanies(listings, time.Now())
	if len(companies) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "registration_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "fei_number", "address", "city", "state", "country",
			"product_codes", "device_class", "synced_at", "updated_at",
		}),
	}).CreateInBatches(&companies, fdaPageSize).Error
	if err != nil {
		return 0, storageErr("upsert companies", err)
	}
	return len(companies), nil
}

// StartDailySync runs the sync once a day at hour (local time) until ctx is
// done.
func (s *FDASyncService) StartDailySync(ctx context.Context, hour int) {
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
			if !now.Before(next) {
				next = next.Add(24 * time.Hour)
			}

			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			log.Println("[Sync] 开始定时同步企业目录...")
			if _, err := s.Run(ctx); err != nil {
				log.Printf("[Sync] 定时同步失败: %v", err)
			}
		}
	}()
}
