package dto

import (
	"time"

	"staffhub/internal/entity"
)

type CreateEmployeeRequest struct {
	Email      string  `json:"email" validate:"required,email"`
	FirstName  string  `json:"first_name" validate:"required,max=100"`
	LastName   string  `json:"last_name" validate:"required,max=100"`
	Department string  `json:"department" validate:"required,oneof=HR IT Finance Marketing Sales Operations"`
	Position   string  `json:"position" validate:"required,max=100"`
	JoinDate   string  `json:"join_date" validate:"omitempty,datetime=2006-01-02"`
	Address    string  `json:"address" validate:"omitempty"`
	Phone      *string `json:"phone" validate:"omitempty,max=15"`
	Status     string  `json:"status" validate:"omitempty,oneof=Active Inactive 'On Leave'"`
}

type UpdateEmployeeRequest struct {
	Department string  `json:"department" validate:"required,oneof=HR IT Finance Marketing Sales Operations"`
	Position   string  `json:"position" validate:"required,max=100"`
	JoinDate   string  `json:"join_date" validate:"omitempty,datetime=2006-01-02"`
	Address    string  `json:"address" validate:"omitempty"`
	Phone      *string `json:"phone" validate:"omitempty,max=15"`
	Status     string  `json:"status" validate:"omitempty,oneof=Active Inactive 'On Leave'"`
}

type EmployeeResponse struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Department     string    `json:"department"`
	Position       string    `json:"position"`
	JoinDate       string    `json:"join_date"`
	Address        string    `json:"address,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Status         string    `json:"status"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type CreateEmployeeResponse struct {
	Employee     EmployeeResponse `json:"employee"`
	Username     string           `json:"username"`
	TempPassword string           `json:"temp_password"`
}

type EmployeeListResponse struct {
	Employees []EmployeeResponse `json:"employees"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	PerPage   int                `json:"per_page"`
}

type DashboardResponse struct {
	TotalEmployees   int                `json:"total_employees"`
	ActiveEmployees  int                `json:"active_employees"`
	Departments      int                `json:"departments"`
	NewThisMonth     int                `json:"new_this_month"`
	DepartmentCounts map[string]int     `json:"department_counts"`
	RecentEmployees  []EmployeeResponse `json:"recent_employees"`
}

type ImportResponse struct {
	Success       bool `json:"success"`
	ImportedCount int  `json:"imported_count"`
}

type ClearAllResponse struct {
	Success      bool `json:"success"`
	RemovedCount int  `json:"removed_count"`
}

func EmployeeResponseFromEntity(employee *entity.Employee) EmployeeResponse {
	response := EmployeeResponse{
		ID:             employee.ID.String(),
		Email:          employee.Email(),
		Department:     string(employee.Department),
		Position:       employee.Position,
		JoinDate:       employee.JoinDate.Format("2006-01-02"),
		Address:        employee.Address,
		Status:         string(employee.Status),
		ProfilePicture: employee.ProfilePicture,
		CreatedAt:      employee.CreatedAt,
		UpdatedAt:      employee.UpdatedAt,
	}
	if employee.User != nil {
		response.FirstName = employee.User.FirstName
		response.LastName = employee.User.LastName
	}
	if employee.Phone != nil {
		response.Phone = *employee.Phone
	}
	return response
}

func EmployeeResponsesFromEntities(employees []entity.Employee) []EmployeeResponse {
	responses := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		responses = append(responses, EmployeeResponseFromEntity(&employees[i]))
	}
	return responses
}
