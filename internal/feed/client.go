package feed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// API est le contrat réseau du gestionnaire d'état. Les tests y substituent
// un faux serveur ; Client est l'implémentation réelle.
type API interface {
	FetchUploads(ctx context.Context) ([]PostRecord, error)
	ToggleLike(ctx context.Context, postID int64, username string) (bool, error)
	AddComment(ctx context.Context, postID int64, username, text string, parentID *int64) (CommentRecord, error)
	UpdatePost(ctx context.Context, postID int64, username, title, description string) error
	DeletePost(ctx context.Context, postID int64, username string) error
}

// Client parle au backend REST et rabat les échecs HTTP sur la taxonomie
// d'erreurs du package.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json"),
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (c *Client) FetchUploads(ctx context.Context) ([]PostRecord, error) {
	var result struct {
		envelope
		Uploads []PostRecord `json:"uploads"`
	}
	var apiErr envelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&apiErr).
		Get("/api/uploads")
	if err := classify(resp, err, result.envelope, apiErr); err != nil {
		return nil, err
	}
	return result.Uploads, nil
}

func (c *Client) ToggleLike(ctx context.Context, postID int64, username string) (bool, error) {
	var result struct {
		envelope
		Liked bool `json:"liked"`
	}
	var apiErr envelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username}).
		SetResult(&result).
		SetError(&apiErr).
		Post(fmt.Sprintf("/api/posts/%d/like", postID))
	if err := classify(resp, err, result.envelope, apiErr); err != nil {
		return false, err
	}
	return result.Liked, nil
}

func (c *Client) AddComment(ctx context.Context, postID int64, username, text string, parentID *int64) (CommentRecord, error) {
	body := map[string]interface{}{
		"username": username,
		"text":     text,
	}
	if parentID != nil {
		body["parentId"] = *parentID
	}

	var result struct {
		envelope
		Comment CommentRecord `json:"comment"`
	}
	var apiErr envelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post(fmt.Sprintf("/api/posts/%d/comment", postID))
	if err := classify(resp, err, result.envelope, apiErr); err != nil {
		return CommentRecord{}, err
	}
	return result.Comment, nil
}

func (c *Client) UpdatePost(ctx context.Context, postID int64, username, title, description string) error {
	var result envelope
	var apiErr envelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"username":    username,
			"title":       title,
			"description": description,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Put(fmt.Sprintf("/api/posts/%d", postID))
	return classify(resp, err, result, apiErr)
}

func (c *Client) DeletePost(ctx context.Context, postID int64, username string) error {
	var result envelope
	var apiErr envelope

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username}).
		SetResult(&result).
		SetError(&apiErr).
		Delete(fmt.Sprintf("/api/posts/%d", postID))
	return classify(resp, err, result, apiErr)
}

// classify rabat une réponse HTTP sur les erreurs sentinelles du package.
func classify(resp *resty.Response, err error, ok envelope, apiErr envelope) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServer, err)
	}

	if resp.IsError() {
		msg := apiErr.Message
		if msg == "" {
			msg = resp.Status()
		}
		switch resp.StatusCode() {
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", ErrValidation, msg)
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrNotAuthenticated, msg)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrPermission, msg)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		default:
			return fmt.Errorf("%w: %s", ErrServer, msg)
		}
	}

	if !ok.Success {
		msg := ok.Message
		if msg == "" {
			msg = "request failed"
		}
		return fmt.Errorf("%w: %s", ErrServer, msg)
	}
	return nil
}
