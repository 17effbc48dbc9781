package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const maxTranslateRunes = 2000

type TranslateConfig struct {
	Endpoint string
	AppID    string
	Secret   string
}

// TranslateService proxies text to a signed translation API
// (sign = md5(appid + q + salt + secret)).
type TranslateService struct {
	client *http.Client
	cfg    TranslateConfig
	salt   func() string
}

func NewTranslateService(client *http.Client, cfg TranslateConfig) *TranslateService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TranslateService{
		client: client,
		cfg:    cfg,
		salt: func() string {
			return strconv.FormatInt(time.Now().UnixNano(), 10)
		},
	}
}

type Translation struct {
	Text string `json:"translation"`
	From string `json:"from"`
	To   string `json:"to"`
}

type translateResponse struct {
	From        string `json:"from"`
	To          string `json:"to"`
	TransResult []struct {
		Src string `json:"src"`
		Dst string `json:"dst"`
	} `json:"trans_result"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

func sign(appID, q, salt, secret string) string {
	sum := md5.Sum([]byte(appID + q + salt + secret))
	return hex.EncodeToString(sum[:])
}

func (s *TranslateService) Translate(ctx context.Context, text, from, to string) (*Translation, error) {
	if s.cfg.AppID == "" || s.cfg.Secret == "" {
		return nil, ErrNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidArg("empty text")
	}
	if utf8.RuneCountInString(text) > maxTranslateRunes {
		return nil, invalidArg("text longer than %d characters", maxTranslateRunes)
	}
	if from == "" {
		from = "auto"
	}
	if to == "" {
		return nil, invalidArg("missing target language")
	}

	salt := s.salt()
	form := url.Values{}
	form.Set("q", text)
	form.Set("from", from)
	form.Set("to", to)
	form.Set("appid", s.cfg.AppID)
	form.Set("salt", salt)
	form.Set("sign", sign(s.cfg.AppID, text, salt, s.cfg.Secret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: translate request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: translate status %d", ErrUpstream, resp.StatusCode)
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode translate response: %v", ErrUpstream, err)
	}
	// 52000 is the API's success code
	if out.ErrorCode != "" && out.ErrorCode != "52000" {
		return nil, fmt.Errorf("%w: translate error %s: %s", ErrUpstream, out.ErrorCode, out.ErrorMsg)
	}
	if len(out.TransResult) == 0 {
		return nil, fmt.Errorf("%w: empty translation", ErrUpstream)
	}

	lines := make([]string, len(out.TransResult))
	for i, r := range out.TransResult {
		lines[i] = r.Dst
	}
	return &Translation{
		Text: strings.Join(lines, "\n"),
		From: out.From,
		To:   out.To,
	}, nil
}
