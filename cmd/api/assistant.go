package main

import (
	"errors"
	"net/http"
)

type AssistantChatPayload struct {
	Prompt string `json:"prompt" validate:"required,max=4000"`
}

type AssistantChatResponse struct {
	Reply string `json:"reply"`
}

// assistantChatHandler godoc
//
//	@Summary		Ask the triage assistant
//	@Description	Coordinator-only helper for drafting triage notes and summaries
//	@Tags			assistant
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			payload	body		AssistantChatPayload	true	"Prompt"
//	@Success		200		{object}	AssistantChatResponse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/assistant/chat [post]
func (app *application) assistantChatHandler(w http.ResponseWriter, r *http.Request) {
	if app.assistant == nil {
		app.badRequestResponse(w, r, errors.New("assistant is not configured"))
		return
	}

	var payload AssistantChatPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reply, err := app.assistant.Chat(r.Context(), payload.Prompt)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, AssistantChatResponse{Reply: reply}); err != nil {
		app.internalServerError(w, r, err)
	}
}
