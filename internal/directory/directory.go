// Package directory is the team/resource datastore: departments with
// their leads, employees, resources and resource requests, plus the
// activity log that feeds scheduled reports. Server-side backups export
// and re-import this store wholesale.
package directory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Department struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	LeadID string `json:"lead_id"`
}

type Employee struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	DepartmentID string    `json:"department_id"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Resource struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	Available int    `json:"available"`
}

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

type ResourceRequest struct {
	ID         string        `json:"id"`
	EmployeeID string        `json:"employee_id"`
	ResourceID string        `json:"resource_id"`
	Quantity   int           `json:"quantity"`
	Status     RequestStatus `json:"status"`
	Note       string        `json:"note,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

type Activity struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Lead is the routing target for request notifications.
type Lead struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Export is the wire shape of a server-side snapshot. SchemaVersion
// leaves room for migrations on restore.
type Export struct {
	SchemaVersion int               `json:"schema_version"`
	Departments   []Department      `json:"departments"`
	Employees     []Employee        `json:"employees"`
	Resources     []Resource        `json:"resources"`
	Requests      []ResourceRequest `json:"requests"`
	Activities    []Activity        `json:"activities"`
}

const SchemaVersion = 1

type Directory struct {
	mu          sync.RWMutex
	departments []Department
	employees   []Employee
	resources   []Resource
	requests    []ResourceRequest
	activities  []Activity
}

func New() *Directory {
	return &Directory{}
}

// NewSeeded returns a directory pre-populated with a small default org,
// matching what a fresh install ships with.
func NewSeeded() *Directory {
	d := New()
	eng := Department{ID: uuid.New().String(), Name: "Engineering"}
	ops := Department{ID: uuid.New().String(), Name: "Operations"}

	engLead := Employee{ID: uuid.New().String(), Name: "Dana Reyes", Email: "dana.reyes@example.com", DepartmentID: eng.ID, Role: "lead", CreatedAt: time.Now()}
	opsLead := Employee{ID: uuid.New().String(), Name: "Sam Okafor", Email: "sam.okafor@example.com", DepartmentID: ops.ID, Role: "lead", CreatedAt: time.Now()}
	eng.LeadID = engLead.ID
	ops.LeadID = opsLead.ID

	d.departments = []Department{eng, ops}
	d.employees = []Employee{engLead, opsLead}
	d.resources = []Resource{
		{ID: uuid.New().String(), Name: "Laptop", Category: "hardware", Quantity: 20, Available: 12},
		{ID: uuid.New().String(), Name: "Meeting Room A", Category: "space", Quantity: 1, Available: 1},
	}
	return d
}

// FindDepartmentLead resolves the lead contact for a department, used to
// route resource-request notifications.
func (d *Directory) FindDepartmentLead(departmentID string) (Lead, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, dept := range d.departments {
		if dept.ID != departmentID {
			continue
		}
		for _, e := range d.employees {
			if e.ID == dept.LeadID {
				return Lead{Email: e.Email, Name: e.Name}, nil
			}
		}
		return Lead{}, fmt.Errorf("department %s has no lead assigned", dept.Name)
	}
	return Lead{}, fmt.Errorf("department %s not found", departmentID)
}

func (d *Directory) ListDepartments() []Department {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Department, len(d.departments))
	copy(out, d.departments)
	return out
}

func (d *Directory) AddDepartment(name, leadID string) Department {
	d.mu.Lock()
	defer d.mu.Unlock()
	dept := Department{ID: uuid.New().String(), Name: name, LeadID: leadID}
	d.departments = append(d.departments, dept)
	return dept
}

func (d *Directory) ListEmployees() []Employee {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Employee, len(d.employees))
	copy(out, d.employees)
	return out
}

func (d *Directory) AddEmployee(name, email, departmentID, role string) Employee {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := Employee{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		DepartmentID: departmentID,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	d.employees = append(d.employees, e)
	return e
}

func (d *Directory) GetEmployee(id string) (Employee, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}

func (d *Directory) ListResources() []Resource {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Resource, len(d.resources))
	copy(out, d.resources)
	return out
}

func (d *Directory) AddResource(name, category string, quantity int) Resource {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := Resource{ID: uuid.New().String(), Name: name, Category: category, Quantity: quantity, Available: quantity}
	d.resources = append(d.resources, r)
	return r
}

func (d *Directory) ListRequests() []ResourceRequest {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]ResourceRequest, len(d.requests))
	copy(out, d.requests)
	return out
}

func (d *Directory) AddRequest(employeeID, resourceID string, quantity int, note string) ResourceRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	req := ResourceRequest{
		ID:         uuid.New().String(),
		EmployeeID: employeeID,
		ResourceID: resourceID,
		Quantity:   quantity,
		Status:     RequestPending,
		Note:       note,
		CreatedAt:  time.Now(),
	}
	d.requests = append(d.requests, req)
	return req
}

func (d *Directory) UpdateRequestStatus(id string, status RequestStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.requests {
		if d.requests[i].ID == id {
			d.requests[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("request %s not found", id)
}

// RecordActivity appends to the activity log read by activity reports.
func (d *Directory) RecordActivity(actor, message string) Activity {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := Activity{ID: uuid.New().String(), Actor: actor, Message: message, Timestamp: time.Now()}
	d.activities = append(d.activities, a)
	return a
}

func (d *Directory) ListActivities() []Activity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Activity, len(d.activities))
	copy(out, d.activities)
	return out
}

// Export returns a deep copy of the whole datastore.
func (d *Directory) Export() Export {
	d.mu.RLock()
	defer d.mu.RUnlock()

	exp := Export{
		SchemaVersion: SchemaVersion,
		Departments:   make([]Department, len(d.departments)),
		Employees:     make([]Employee, len(d.employees)),
		Resources:     make([]Resource, len(d.resources)),
		Requests:      make([]ResourceRequest, len(d.requests)),
		Activities:    make([]Activity, len(d.activities)),
	}
	copy(exp.Departments, d.departments)
	copy(exp.Employees, d.employees)
	copy(exp.Resources, d.resources)
	copy(exp.Requests, d.requests)
	copy(exp.Activities, d.activities)
	return exp
}

// Import replaces the whole datastore with the exported data. Restores
// overwrite, they never merge.
func (d *Directory) Import(exp Export) error {
	if exp.SchemaVersion > SchemaVersion {
		return fmt.Errorf("unsupported schema version %d", exp.SchemaVersion)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.departments = append([]Department(nil), exp.Departments...)
	d.employees = append([]Employee(nil), exp.Employees...)
	d.resources = append([]Resource(nil), exp.Resources...)
	d.requests = append([]ResourceRequest(nil), exp.Requests...)
	d.activities = append([]Activity(nil), exp.Activities...)
	return nil
}
