package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/punchamoorthee/hederaops/internal/auth"
	"github.com/punchamoorthee/hederaops/internal/domain"
	"github.com/punchamoorthee/hederaops/internal/models"
	"github.com/punchamoorthee/hederaops/internal/service"
)

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// caller is always present behind Authenticate.
func caller(r *http.Request) domain.Caller {
	c, _ := CallerFrom(r.Context())
	return c
}

func requireAdmin(r *http.Request) error {
	if !caller(r).IsAdmin() {
		return fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}
	return nil
}

// Status

func (h *Handler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.status.Get()
	if !snap.Available() {
		respondWithJSON(w, http.StatusServiceUnavailable, snap)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

func (h *Handler) GetLiveStatusHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := h.orch.GetNetworkStatus(r.Context())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

func (h *Handler) RefreshStatusHandler(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	snap, err := h.status.Refresh(r.Context())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

// Accounts

func (h *Handler) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := decode(r, &req); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	account, err := h.accounts.CreateAccount(r.Context(), service.CreateAccountRequest{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		PublicKey: req.PublicKey,
	})
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/accounts/"+account.ID)
	respondWithJSON(w, http.StatusCreated, account)
}

// CreateSessionHandler signs a token for an account whose password checks out.
func (h *Handler) CreateSessionHandler(signer *auth.Verifier, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SessionRequest
		if err := decode(r, &req); err != nil {
			h.respondWithServiceError(w, r, err)
			return
		}
		account, err := h.accounts.VerifyCredentials(r.Context(), req.Username, req.Password)
		if err != nil {
			h.respondWithServiceError(w, r, err)
			return
		}
		expires := time.Now().Add(ttl)
		token, err := signer.Sign(domain.Caller{ID: account.ID, Username: account.Username}, ttl)
		if err != nil {
			h.respondWithServiceError(w, r, fmt.Errorf("sign session token: %w", err))
			return
		}
		respondWithJSON(w, http.StatusCreated, models.SessionResponse{Token: token, AccountID: account.ID, ExpiresAt: expires.UTC()})
	}
}

func (h *Handler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	accounts, err := h.accounts.ListAccounts(r.Context())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, accounts)
}

func (h *Handler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	includeKey, _ := strconv.ParseBool(r.URL.Query().Get("include_private_key"))

	info, err := h.accounts.GetAccountInfoAs(r.Context(), id, caller(r), includeKey)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, info)
}

// GetProfileHandler returns the stored identity without touching the ledger.
func (h *Handler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := auth.Authorize(id, caller(r)); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	account, err := h.accounts.GetAccountByID(r.Context(), id)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

func (h *Handler) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	b, err := h.accounts.GetAccountBalanceWithAccessControl(r.Context(), mux.Vars(r)["id"], caller(r))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, b)
}

func (h *Handler) GetBalancesHandler(w http.ResponseWriter, r *http.Request) {
	b, err := h.accounts.GetAccountBalancesFull(r.Context(), mux.Vars(r)["id"], caller(r))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, b)
}

func (h *Handler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.accounts.ListTransactions(r.Context(), mux.Vars(r)["id"], caller(r))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

func (h *Handler) ListActivityHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.accounts.ListActivity(r.Context(), mux.Vars(r)["id"], caller(r), limit)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

// Transfers

func (h *Handler) CreateHbarTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req models.HbarTransferRequest
	if err := decode(r, &req); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	if err := auth.Authorize(req.SenderID, caller(r)); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	res, err := h.orch.SendHbar(r.Context(), service.HbarTransferRequest{
		SenderID:    req.SenderID,
		SenderKey:   req.SenderKey,
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
	})
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, res)
}

func (h *Handler) CreateTokenTransferHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TokenTransferRequest
	if err := decode(r, &req); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	if err := auth.Authorize(req.SenderID, caller(r)); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	sub, err := h.orch.SendToken(r.Context(), service.TokenTransferRequest{
		TokenID:     req.TokenID,
		SenderID:    req.SenderID,
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
	})
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, toResponse(sub, ""))
}

// Tokens

func (h *Handler) CreateTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TokenCreateRequest
	if err := decode(r, &req); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	sub, err := h.orch.CreateToken(r.Context(), service.TokenCreateRequest{
		Name:          req.Name,
		Symbol:        req.Symbol,
		Decimals:      req.Decimals,
		InitialSupply: req.InitialSupply,
	})
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, toResponse(sub, "token"))
}

func (h *Handler) AssociateTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TokenAssociateRequest
	if err := decode(r, &req); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	if err := auth.Authorize(req.AccountID, caller(r)); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	sub, err := h.orch.AssociateToken(r.Context(), req.AccountID, req.TokenID, req.AccountKey)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toResponse(sub, ""))
}

func (h *Handler) BurnTokenHandler(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	var req models.TokenBurnRequest
	if err := decode(r, &req); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	sub, err := h.orch.BurnToken(r.Context(), mux.Vars(r)["id"], req.Amount)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toResponse(sub, ""))
}

// Consensus and files

func (h *Handler) CreateTopicHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TopicCreateRequest
	if err := decode(r, &req); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	sub, err := h.orch.CreateTopic(r.Context(), req.Memo)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, toResponse(sub, "topic"))
}

func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.TopicMessageRequest
	if err := decode(r, &req); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	sub, err := h.orch.SendMessage(r.Context(), mux.Vars(r)["id"], req.Message)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, toResponse(sub, ""))
}

func (h *Handler) CreateFileHandler(w http.ResponseWriter, r *http.Request) {
	var req models.FileCreateRequest
	if err := decode(r, &req); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	sub, err := h.orch.CreateFile(r.Context(), []byte(req.Contents))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, toResponse(sub, "file"))
}

// toResponse places the assigned id under the field named by kind.
func toResponse(sub *service.Submission, kind string) models.SubmissionResponse {
	resp := models.SubmissionResponse{
		Status:        sub.Status,
		TransactionID: sub.TransactionID,
		ConsensusTime: sub.ConsensusTime,
	}
	switch kind {
	case "token":
		resp.TokenID = sub.AssignedID
	case "topic":
		resp.TopicID = sub.AssignedID
	case "file":
		resp.FileID = sub.AssignedID
	}
	return resp
}
