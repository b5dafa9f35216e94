package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/services"
	"github.com/Dosada05/fitarena-system/wizard"
)

// Client - HTTP-клиент мобильного приложения. Реализует wizard.Backend и
// wizard.FairPlayGate поверх REST API сервера.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register создаёт аккаунт. Токен не выдаётся, после регистрации нужен Login.
func (c *Client) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	var out struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/register", input, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Login обменивает учётные данные на JWT и запоминает его для
// последующих запросов.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	input := models.Credentials{Email: email, Password: password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", input, &out); err != nil {
		return "", err
	}
	c.Token = out.Token
	return out.Token, nil
}

func (c *Client) CreateDraftCompetition(ctx context.Context, basics wizard.Basics) (int, error) {
	input := services.CreateDraftInput{
		Name:        basics.Name,
		Cadence:     basics.Cadence,
		Visibility:  basics.Visibility,
		ScoringType: basics.ScoringType,
		ScoringGoal: basics.ScoringGoal,
		TeamMode:    basics.TeamMode,
		StartDate:   basics.StartDate,
		EndDate:     basics.EndDate,
	}
	if basics.Description != "" {
		input.Description = &basics.Description
	}
	var out struct {
		Competition *models.Competition `json:"competition"`
	}
	if err := c.do(ctx, http.MethodPost, "/competitions", input, &out); err != nil {
		return 0, err
	}
	if out.Competition == nil {
		return 0, fmt.Errorf("server response is missing the competition")
	}
	return out.Competition.ID, nil
}

func (c *Client) DeleteDraftCompetition(ctx context.Context, draftID int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/competitions/%d", draftID), nil, nil)
}

func (c *Client) FinalizeDraftCompetition(ctx context.Context, draftID int, cfg wizard.FinalizeConfig) error {
	input := services.FinalizeInput{
		Teams: make([]services.TeamInput, 0, len(cfg.Teams)),
	}
	for _, team := range cfg.Teams {
		input.Teams = append(input.Teams, services.TeamInput{
			Name:  team.Name,
			Color: team.Color,
			Emoji: team.Emoji,
		})
	}
	if cfg.Pool != nil {
		input.Pool = &services.PoolInput{
			Mode:            cfg.Pool.Mode,
			Amount:          cfg.Pool.Amount,
			PayoutStructure: cfg.Pool.PayoutStructure,
		}
	}
	if cfg.ChargeRef != "" {
		input.ChargeRef = &cfg.ChargeRef
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/competitions/%d/finalize", draftID), input, nil)
}

func (c *Client) FetchCompetition(ctx context.Context, competitionID int) (*models.Competition, error) {
	var out struct {
		Competition *models.Competition `json:"competition"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/competitions/%d", competitionID), nil, &out); err != nil {
		return nil, err
	}
	return out.Competition, nil
}

// ListCompetitions загружает список для главного экрана.
// filter: created, joined или public.
func (c *Client) ListCompetitions(ctx context.Context, filter string) ([]models.Competition, error) {
	path := "/competitions"
	if filter != "" {
		path = fmt.Sprintf("/competitions?filter=%s", filter)
	}
	var out struct {
		Competitions []models.Competition `json:"competitions"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Competitions, nil
}

func (c *Client) CreateInvitations(ctx context.Context, competitionID int, inviteeIDs []int) error {
	input := struct {
		InviteeIDs []int `json:"invitee_ids"`
	}{InviteeIDs: inviteeIDs}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/competitions/%d/invitations", competitionID), input, nil)
}

func (c *Client) PendingInvitations(ctx context.Context) ([]models.Invitation, error) {
	var out struct {
		Invitations []models.Invitation `json:"invitations"`
	}
	if err := c.do(ctx, http.MethodGet, "/invitations", nil, &out); err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

func (c *Client) AcceptInvitation(ctx context.Context, invitationID int, chargeRef string) (wizard.AcceptReply, error) {
	input := struct {
		ChargeRef *string `json:"charge_ref"`
	}{}
	if chargeRef != "" {
		input.ChargeRef = &chargeRef
	}
	var out struct {
		Result services.AcceptResult `json:"result"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/invitations/%d/accept", invitationID), input, &out)
	if err != nil {
		return wizard.AcceptReply{}, err
	}
	return wizard.AcceptReply{
		Joined:        out.Result.Joined,
		RequiresBuyIn: out.Result.RequiresBuyIn,
		BuyInAmount:   out.Result.BuyInAmount,
	}, nil
}

func (c *Client) JoinWithoutPool(ctx context.Context, invitationID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/invitations/%d/join-without-pool", invitationID), nil, nil)
}

func (c *Client) DeclineInvitation(ctx context.Context, invitationID int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/invitations/%d/decline", invitationID), nil, nil)
}

func (c *Client) FairPlayAccepted(ctx context.Context) (bool, error) {
	var out struct {
		Accepted bool `json:"accepted"`
	}
	if err := c.do(ctx, http.MethodGet, "/fair-play", nil, &out); err != nil {
		return false, err
	}
	return out.Accepted, nil
}

func (c *Client) AcknowledgeFairPlay(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/fair-play", nil, nil)
}

// do выполняет запрос и раскладывает ответ. Ошибки сервера приходят в
// конверте {"error": ...} и возвращаются как обычные error.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode server response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var env struct {
			Error interface{} `json:"error"`
		}
		if json.Unmarshal(data, &env) == nil && env.Error != nil {
			return fmt.Errorf("server returned %d: %v", resp.StatusCode, env.Error)
		}
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
