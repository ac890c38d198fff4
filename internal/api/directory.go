package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sapliy/teamdesk/internal/mail"
	"github.com/sapliy/teamdesk/internal/notify"
	"github.com/sapliy/teamdesk/pkg/jsonutil"
)

func (s *Server) listDepartmentsHandler(w http.ResponseWriter, r *http.Request) {
	jsonutil.WriteSuccess(w, map[string]any{"departments": s.dir.ListDepartments()})
}

func (s *Server) listEmployeesHandler(w http.ResponseWriter, r *http.Request) {
	jsonutil.WriteSuccess(w, map[string]any{"employees": s.dir.ListEmployees()})
}

type addEmployeeRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	DepartmentID string `json:"departmentId"`
	Role         string `json:"role"`
}

func (s *Server) addEmployeeHandler(w http.ResponseWriter, r *http.Request) {
	var req addEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || !mail.ValidEmail(req.Email) {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "name and a valid email are required")
		return
	}
	e := s.dir.AddEmployee(req.Name, req.Email, req.DepartmentID, req.Role)
	s.dir.RecordActivity("system", "employee added: "+e.Name)
	jsonutil.WriteSuccess(w, map[string]any{"employee": e})
}

func (s *Server) listResourcesHandler(w http.ResponseWriter, r *http.Request) {
	jsonutil.WriteSuccess(w, map[string]any{"resources": s.dir.ListResources()})
}

type addResourceRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

func (s *Server) addResourceHandler(w http.ResponseWriter, r *http.Request) {
	var req addResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.Quantity < 1 {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "name and a positive quantity are required")
		return
	}
	res := s.dir.AddResource(req.Name, req.Category, req.Quantity)
	s.dir.RecordActivity("system", "resource added: "+res.Name)
	jsonutil.WriteSuccess(w, map[string]any{"resource": res})
}

func (s *Server) listRequestsHandler(w http.ResponseWriter, r *http.Request) {
	jsonutil.WriteSuccess(w, map[string]any{"requests": s.dir.ListRequests()})
}

type addRequestRequest struct {
	EmployeeID string `json:"employeeId"`
	ResourceID string `json:"resourceId"`
	Quantity   int    `json:"quantity"`
	Note       string `json:"note"`
}

// addRequestHandler files a resource request and alerts the requesting
// employee's department lead by email.
func (s *Server) addRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req addRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	employee, ok := s.dir.GetEmployee(req.EmployeeID)
	if !ok {
		jsonutil.WriteErrorJSON(w, http.StatusNotFound, "employee not found")
		return
	}
	var resourceName string
	for _, res := range s.dir.ListResources() {
		if res.ID == req.ResourceID {
			resourceName = res.Name
		}
	}
	if resourceName == "" {
		jsonutil.WriteErrorJSON(w, http.StatusNotFound, "resource not found")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	request := s.dir.AddRequest(req.EmployeeID, req.ResourceID, req.Quantity, req.Note)
	s.dir.RecordActivity(employee.Name, fmt.Sprintf("requested %dx %s", req.Quantity, resourceName))
	s.center.Add("Resource request",
		fmt.Sprintf("%s requested %dx %s", employee.Name, req.Quantity, resourceName),
		notify.CategoryRequest)

	// Alert the lead when email is configured; the request itself goes
	// through either way.
	if cfg := s.settings.Get(); cfg.Enabled {
		if lead, err := s.dir.FindDepartmentLead(employee.DepartmentID); err == nil {
			data := map[string]string{
				"LeadName":      lead.Name,
				"RequesterName": employee.Name,
				"Quantity":      fmt.Sprintf("%d", req.Quantity),
				"ResourceName":  resourceName,
				"Note":          req.Note,
			}
			text, _ := mail.RenderTemplate("request_alert", data)
			html, _ := mail.RenderTemplate("request_alert.html", data)
			res := s.mailer.Send(r.Context(), cfg, mail.Message{
				To:      []string{lead.Email},
				Subject: fmt.Sprintf("Resource request from %s", employee.Name),
				Text:    text,
				HTML:    html,
			})
			if !res.Success {
				s.log.Warn("request alert email failed", "error", res.Error)
			}
		}
	}

	jsonutil.WriteSuccess(w, map[string]any{"request": request})
}
