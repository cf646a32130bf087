package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/config"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/util"
)

// Service is the hosted catalog/data collaborator. The engine never talks
// to the wire format directly; tests substitute this interface.
type Service interface {
	GetQuiz(ctx context.Context, id string) (*model.Quiz, []model.Question, error)
	SubmitAttempt(ctx context.Context, attempt *model.Attempt) error
	UpdateProgress(ctx context.Context, record *model.ProgressRecord) error
	Ping(ctx context.Context) error
}

type Client struct {
	cfg    config.RemoteConfig
	client *http.Client
}

func NewClient(cfg config.RemoteConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// questionWire carries the grading key. Question hides CorrectAnswer from
// every outbound serialization, so the node-to-service payload needs its
// own shape.
type questionWire struct {
	model.Question
	CorrectAnswer string `json:"correctAnswer"`
}

type quizEnvelope struct {
	Quiz      model.Quiz     `json:"quiz"`
	Questions []questionWire `json:"questions"`
}

func (c *Client) GetQuiz(ctx context.Context, id string) (*model.Quiz, []model.Question, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.BaseURL+"/rest/v1/quizzes/"+id, nil)
	if err != nil {
		return nil, nil, err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", util.ErrLoadFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil, util.ErrQuizNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, nil, fmt.Errorf("%w: status %d", util.ErrLoadFailed, resp.StatusCode)
	}

	var env quizEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", util.ErrLoadFailed, err)
	}

	questions := make([]model.Question, len(env.Questions))
	for i, w := range env.Questions {
		questions[i] = w.Question
		questions[i].CorrectAnswer = w.CorrectAnswer
	}
	return &env.Quiz, questions, nil
}

// SubmitAttempt delivers a finalized attempt. The remote side upserts on
// the attempt ID, so duplicate deliveries of a queued submission are safe.
func (c *Client) SubmitAttempt(ctx context.Context, attempt *model.Attempt) error {
	return c.post(ctx, "/rest/v1/attempts", attempt)
}

func (c *Client) UpdateProgress(ctx context.Context, record *model.ProgressRecord) error {
	return c.post(ctx, "/rest/v1/progress", record)
}

func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.BaseURL+"/rest/v1/health", nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("remote unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", util.ErrDeliveryFailed, resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("apikey", c.cfg.APIKey)
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
}
