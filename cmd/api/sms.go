package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fitih/internal/sms"
	"fitih/internal/store"

	"github.com/go-chi/chi/v5"
)

type SMSRecipient struct {
	UserID *int64 `json:"user_id"`
	Phone  string `json:"phone" validate:"omitempty,ethiopianphone"`
}

type SendSMSPayload struct {
	Recipients []SMSRecipient `json:"recipients" validate:"required,min=1,max=100,dive"`
	Body       string         `json:"body" validate:"required,max=480"`
}

type SMSSendResult struct {
	SMSID  int64  `json:"sms_id,omitempty"`
	Phone  string `json:"phone"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// dispatchSMS pushes one queued message through the gateway and records the
// outcome on the row. A gateway refusal marks the row FAILED, it never
// bubbles up as a request error.
func (app *application) dispatchSMS(ctx context.Context, m *store.SMSMessage) SMSSendResult {
	result := SMSSendResult{SMSID: m.ID, Phone: m.Phone}

	resp, err := app.smsGateway.Send(ctx, sms.SendRequest{
		Phone:     m.Phone,
		Body:      m.Body,
		ClientRef: fmt.Sprintf("fitih-%d", m.ID),
	})
	if err != nil || !resp.Accepted {
		reason := resp.Error
		if err != nil {
			reason = err.Error()
		}
		if updErr := app.store.SMS.UpdateStatus(ctx, m.ID, store.SMSFailed, resp.ProviderRef, reason); updErr != nil {
			app.logger.Errorw("failed to record sms failure", "sms_id", m.ID, "error", updErr)
		}
		result.Status = string(store.SMSFailed)
		result.Error = reason
		return result
	}

	if err := app.store.SMS.UpdateStatus(ctx, m.ID, store.SMSSent, resp.ProviderRef, ""); err != nil {
		app.logger.Errorw("failed to record sms dispatch", "sms_id", m.ID, "error", err)
	}
	result.Status = string(store.SMSSent)
	return result
}

// sendSMSHandler godoc
//
//	@Summary		Send SMS messages
//	@Description	Queues and dispatches a message per recipient; each recipient gets its own result
//	@Tags			sms
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body	SendSMSPayload	true	"Recipients and body"
//	@Success		200		{array}	SMSSendResult
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/sms/send [post]
func (app *application) sendSMSHandler(w http.ResponseWriter, r *http.Request) {
	var payload SendSMSPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	results := make([]SMSSendResult, 0, len(payload.Recipients))

	for _, recipient := range payload.Recipients {
		phone := recipient.Phone
		if recipient.UserID != nil {
			user, err := app.store.Users.GetByID(r.Context(), *recipient.UserID)
			if err != nil {
				results = append(results, SMSSendResult{
					Phone:  phone,
					Status: string(store.SMSFailed),
					Error:  "recipient user not found",
				})
				continue
			}
			phone = user.Phone
		}
		if phone == "" {
			results = append(results, SMSSendResult{
				Status: string(store.SMSFailed),
				Error:  "recipient has no phone number",
			})
			continue
		}

		m := &store.SMSMessage{
			RecipientID: recipient.UserID,
			Phone:       phone,
			Body:        payload.Body,
		}
		if err := app.store.SMS.Create(r.Context(), m); err != nil {
			app.logger.Errorw("failed to queue sms", "phone", phone, "error", err)
			results = append(results, SMSSendResult{
				Phone:  phone,
				Status: string(store.SMSFailed),
				Error:  "could not queue message",
			})
			continue
		}

		results = append(results, app.dispatchSMS(r.Context(), m))
	}

	if err := app.jsonResponse(w, http.StatusOK, results); err != nil {
		app.internalServerError(w, r, err)
	}
}

// resendSMSHandler godoc
//
//	@Summary		Resend a failed SMS
//	@Description	Only messages in FAILED state can be resent
//	@Tags			sms
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			smsID	path		int	true	"SMS ID"
//	@Success		200		{object}	SMSSendResult
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error
//	@Router			/sms/{smsID}/resend [post]
func (app *application) resendSMSHandler(w http.ResponseWriter, r *http.Request) {
	smsID, err := strconv.ParseInt(chi.URLParam(r, "smsID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	m, err := app.store.SMS.GetByID(r.Context(), smsID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if m.Status != store.SMSFailed {
		app.badRequestResponse(w, r, errors.New("Only failed messages can be resent"))
		return
	}

	result := app.dispatchSMS(r.Context(), m)

	if err := app.jsonResponse(w, http.StatusOK, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listSMSHandler godoc
//
//	@Summary		List sent SMS messages
//	@Tags			sms
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Success		200	{array}	store.SMSMessage
//	@Router			/sms [get]
func (app *application) listSMSHandler(w http.ResponseWriter, r *http.Request) {
	messages, err := app.store.SMS.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, messages); err != nil {
		app.internalServerError(w, r, err)
	}
}

// smsDeliveryReportHandler godoc
//
//	@Summary		SMS delivery report webhook
//	@Description	Called by the gateway; updates the message matching the provider reference
//	@Tags			sms
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	string
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		401	{object}	error
//	@Router			/sms/delivery-report [post]
func (app *application) smsDeliveryReportHandler(w http.ResponseWriter, r *http.Request) {
	if secret := app.config.sms.webhookSecret; secret != "" {
		presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			app.unauthorizedErrorResponse(w, r, errors.New("invalid delivery report credentials"))
			return
		}
	}

	report, err := sms.ParseDeliveryReport(r.Body)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	status := store.SMSDelivered
	if report.Status == "failed" {
		status = store.SMSFailed
	}

	err = app.store.SMS.UpdateStatusByProviderRef(r.Context(), report.ProviderRef, status, report.Reason)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		app.internalServerError(w, r, err)
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		// Unknown reference; acknowledge anyway so the gateway stops retrying.
		app.logger.Warnw("delivery report for unknown message", "provider_ref", report.ProviderRef)
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
