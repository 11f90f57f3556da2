package api

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"fahrerexpress/pkg/apperrors"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
	"fahrerexpress/service"
)

var invitePage = template.Must(template.New("invite").Parse(`<!DOCTYPE html>
<html lang="de">
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>{{.Title}} | Fahrerexpress</title></head>
<body style="font-family:Arial,sans-serif;max-width:560px;margin:48px auto;padding:0 16px;color:#1f2937">
<h1 style="color:{{.Color}}">{{.Title}}</h1>
<p>{{.Text}}</p>
<p style="color:#6b7280;font-size:13px">Fahrerexpress Disposition</p>
</body>
</html>`))

type pageData struct {
	Title string
	Text  string
	Color string
}

const (
	colorOK    = "#16a34a"
	colorInfo  = "#2563eb"
	colorError = "#dc2626"
)

func outcomePage(out *service.InviteOutcome) pageData {
	if out.AlreadyResponded {
		switch out.Status {
		case models.InviteStatusAccepted:
			return pageData{"Bereits zugesagt", "Sie haben diesen Einsatz bereits angenommen. Wir melden uns mit allen Details.", colorInfo}
		case models.InviteStatusDeclined:
			return pageData{"Bereits abgesagt", "Sie haben diesen Einsatz bereits abgelehnt.", colorInfo}
		default:
			return pageData{"Link abgelaufen", "Diese Einsatzanfrage ist nicht mehr gültig.", colorInfo}
		}
	}
	switch out.Status {
	case models.InviteStatusAccepted:
		if out.JobTaken {
			return pageData{"Danke für Ihre Zusage", "Dieser Einsatz wurde inzwischen bereits vergeben. Wir melden uns beim nächsten passenden Auftrag.", colorInfo}
		}
		return pageData{"Einsatz angenommen", "Vielen Dank! Ihre Zusage ist eingegangen. Die Disposition meldet sich mit allen Details.", colorOK}
	case models.InviteStatusDeclined:
		return pageData{"Einsatz abgelehnt", "Schade! Ihre Absage wurde gespeichert.", colorInfo}
	default:
		return pageData{"Link abgelaufen", "Diese Einsatzanfrage ist leider abgelaufen. Bitte kontaktieren Sie die Disposition.", colorError}
	}
}

func errorPage(err error) pageData {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeNotFound:
		return pageData{"Ungültiger Link", "Dieser Link ist ungültig oder abgelaufen.", colorError}
	case apperrors.CodeValidation:
		return pageData{"Ungültige Anfrage", "Der Link ist unvollständig. Bitte verwenden Sie den Link aus der E-Mail.", colorError}
	default:
		return pageData{"Fehler", "Es ist ein Fehler aufgetreten. Bitte versuchen Sie es später erneut.", colorError}
	}
}

func (h *Handler) respondInvite(c *gin.Context) {
	out, err := h.services.Invite().Respond(c.Request.Context(), c.Query("t"), c.Query("a"), service.ResponseMeta{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	})
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeInternal {
			h.log.Error("invite response failed", logger.Error(err))
		}
		h.renderPage(c, apperrors.CodeOf(err).HTTPStatus(), errorPage(err))
		return
	}
	h.renderPage(c, http.StatusOK, outcomePage(out))
}

func (h *Handler) renderPage(c *gin.Context, status int, data pageData) {
	var buf bytes.Buffer
	if err := invitePage.Execute(&buf, data); err != nil {
		h.log.Error("failed to render invite page", logger.Error(err))
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
