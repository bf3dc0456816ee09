// Package apiclient is the REST surface this client consumes: fetch and list
// questions, submit answers, comments and votes, and log in. Mutations go
// through here; their effects come back to the reconciliation layer only as
// broadcast events on the live channel.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PavanKumar06/stackoverflow-client/internal/forum"
	"go.uber.org/zap"
)

var (
	errMissingBaseURL = errors.New("apiclient: base url is required")
	// ErrUnauthorized indicates the backend rejected the access token.
	ErrUnauthorized = errors.New("apiclient: unauthorized")
)

const defaultRequestTimeout = 15 * time.Second

// Config describes a backend API client.
type Config struct {
	BaseURL     string
	AccessToken string
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Client talks to the forum backend over HTTP.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// New validates the configuration and constructs a client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errMissingBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:     base,
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// SetAccessToken installs the bearer token used on subsequent requests.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

type loginRequest struct {
	Username string `json:"username"`
}

// LoginResult carries the session token issued by the backend.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Login exchanges a username for a session token and installs it on the
// client.
func (c *Client) Login(ctx context.Context, username forum.Username) (LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Username: username.String()}, &result)
	if err != nil {
		return LoginResult{}, err
	}
	c.accessToken = result.AccessToken
	return result, nil
}

// FetchQuestion loads the full aggregate for one question. The backend counts
// the fetch as a view and broadcasts the updated aggregate to subscribers.
func (c *Client) FetchQuestion(ctx context.Context, id forum.QuestionID) (forum.Question, error) {
	var question forum.Question
	err := c.do(ctx, http.MethodGet, "/questions/"+url.PathEscape(id.String()), nil, &question)
	if err != nil {
		return forum.Question{}, err
	}
	return question, nil
}

// ListQuestions returns questions matching the search filter in the given
// order.
func (c *Client) ListQuestions(ctx context.Context, search string, order forum.Order) ([]forum.Question, error) {
	values := url.Values{}
	if search != "" {
		values.Set("search", search)
	}
	if order != "" {
		values.Set("order", string(order))
	}
	path := "/questions"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var questions []forum.Question
	if err := c.do(ctx, http.MethodGet, path, nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// TagCount pairs a tag name with the number of questions carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ListTags returns every tag with its question count.
func (c *Client) ListTags(ctx context.Context) ([]TagCount, error) {
	var tags []TagCount
	if err := c.do(ctx, http.MethodGet, "/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

type newQuestionRequest struct {
	Title string   `json:"title"`
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
}

// CreateQuestion posts a new question and returns the stored aggregate.
func (c *Client) CreateQuestion(ctx context.Context, title, text string, tags []string) (forum.Question, error) {
	var question forum.Question
	err := c.do(ctx, http.MethodPost, "/questions", newQuestionRequest{Title: title, Text: text, Tags: tags}, &question)
	if err != nil {
		return forum.Question{}, err
	}
	return question, nil
}

type newAnswerRequest struct {
	Text string `json:"text"`
}

// SubmitAnswer posts an answer to the named question. Success causes the
// backend to broadcast an answerAdded event to all subscribers.
func (c *Client) SubmitAnswer(ctx context.Context, questionID forum.QuestionID, text string) (forum.Answer, error) {
	var answer forum.Answer
	path := "/questions/" + url.PathEscape(questionID.String()) + "/answers"
	if err := c.do(ctx, http.MethodPost, path, newAnswerRequest{Text: text}, &answer); err != nil {
		return forum.Answer{}, err
	}
	return answer, nil
}

type newCommentRequest struct {
	TargetID   string `json:"targetId"`
	TargetKind string `json:"targetKind"`
	Text       string `json:"text"`
}

// SubmitComment attaches a comment to a question or answer. Success causes
// the backend to broadcast a commentAdded event carrying the updated target.
func (c *Client) SubmitComment(ctx context.Context, targetID string, kind forum.TargetKind, text string) (forum.Comment, error) {
	var comment forum.Comment
	request := newCommentRequest{TargetID: targetID, TargetKind: string(kind), Text: text}
	if err := c.do(ctx, http.MethodPost, "/comments", request, &comment); err != nil {
		return forum.Comment{}, err
	}
	return comment, nil
}

type voteRequest struct {
	Direction string `json:"direction"`
}

// VoteResult carries the full membership sets after a vote mutation.
type VoteResult struct {
	UpVotes   []string `json:"upVotes"`
	DownVotes []string `json:"downVotes"`
}

// SubmitVote registers an up or down vote for the session user. Success
// causes the backend to broadcast a voteChanged event with the full sets.
func (c *Client) SubmitVote(ctx context.Context, questionID forum.QuestionID, up bool) (VoteResult, error) {
	direction := "down"
	if up {
		direction = "up"
	}
	var result VoteResult
	path := "/questions/" + url.PathEscape(questionID.String()) + "/vote"
	if err := c.do(ctx, http.MethodPost, path, voteRequest{Direction: direction}, &result); err != nil {
		return VoteResult{}, err
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(response.Body).Decode(&payload)
		if payload.Error != "" {
			return fmt.Errorf("apiclient: %s %s: %s", method, path, payload.Error)
		}
		return fmt.Errorf("apiclient: %s %s: status %d", method, path, response.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(out)
}
