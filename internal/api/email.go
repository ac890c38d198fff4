package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sapliy/teamdesk/internal/mail"
	"github.com/sapliy/teamdesk/internal/notify"
	"github.com/sapliy/teamdesk/pkg/jsonutil"
)

// redactedConfig strips the password before a config leaves the API.
func redactedConfig(cfg mail.Config) map[string]any {
	return map[string]any{
		"provider":  cfg.Provider,
		"host":      cfg.Host,
		"port":      cfg.Port,
		"username":  cfg.Username,
		"fromEmail": cfg.FromEmail,
		"fromName":  cfg.FromName,
		"secure":    cfg.Secure,
		"enabled":   cfg.Enabled,
	}
}

func (s *Server) getEmailConfigHandler(w http.ResponseWriter, r *http.Request) {
	jsonutil.WriteSuccess(w, map[string]any{"config": redactedConfig(s.settings.Get())})
}

func (s *Server) updateEmailConfigHandler(w http.ResponseWriter, r *http.Request) {
	var patch mail.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	cfg, validationErrs, err := s.settings.Update(patch)
	if err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(validationErrs) > 0 {
		jsonutil.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success": false,
			"errors":  validationErrs,
		})
		return
	}
	jsonutil.WriteSuccess(w, map[string]any{"config": redactedConfig(cfg)})
}

type sendTestRequest struct {
	Recipient string `json:"recipient"`
}

func (s *Server) sendTestHandler(w http.ResponseWriter, r *http.Request) {
	var req sendTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	text, _ := mail.RenderTemplate("test", nil)
	html, _ := mail.RenderTemplate("test.html", nil)
	res := s.mailer.Send(r.Context(), s.settings.Get(), mail.Message{
		To:      []string{req.Recipient},
		Subject: "TeamDesk test email",
		Text:    text,
		HTML:    html,
	})
	s.writeSendResult(w, res)
}

type sendWelcomeRequest struct {
	EmployeeID string `json:"employeeId"`
}

func (s *Server) sendWelcomeHandler(w http.ResponseWriter, r *http.Request) {
	var req sendWelcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	employee, ok := s.dir.GetEmployee(req.EmployeeID)
	if !ok {
		jsonutil.WriteErrorJSON(w, http.StatusNotFound, "employee not found")
		return
	}
	lead, err := s.dir.FindDepartmentLead(employee.DepartmentID)
	if err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	deptName := employee.DepartmentID
	for _, d := range s.dir.ListDepartments() {
		if d.ID == employee.DepartmentID {
			deptName = d.Name
		}
	}
	data := map[string]string{
		"Name":       employee.Name,
		"Department": deptName,
		"LeadName":   lead.Name,
		"LeadEmail":  lead.Email,
	}
	text, err := mail.RenderTemplate("welcome", data)
	if err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	html, err := mail.RenderTemplate("welcome.html", data)
	if err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	res := s.mailer.Send(r.Context(), s.settings.Get(), mail.Message{
		To:      []string{employee.Email},
		Subject: "Welcome to the team, " + employee.Name,
		Text:    text,
		HTML:    html,
	})
	if res.Success {
		s.center.Add("Welcome package sent",
			fmt.Sprintf("Welcome email delivered to %s", employee.Email),
			notify.CategoryGeneral)
		s.dir.RecordActivity("system", "welcome package sent to "+employee.Name)
	}
	s.writeSendResult(w, res)
}

func (s *Server) sendActivityReportHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.SendNow(r.Context()); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	jsonutil.WriteSuccess(w, nil)
}

func (s *Server) writeSendResult(w http.ResponseWriter, res mail.Result) {
	if !res.Success {
		jsonutil.WriteJSON(w, http.StatusBadGateway, res)
		return
	}
	jsonutil.WriteJSON(w, http.StatusOK, res)
}
