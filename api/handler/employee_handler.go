package handler

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"staffhub/api/middleware"
	"staffhub/internal/dto"
	"staffhub/internal/entity"
	"staffhub/internal/repository"
	"staffhub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const joinDateLayout = "2006-01-02"

type EmployeeHandler struct {
	Service  *service.EmployeeService
	Auth     *service.AuthService
	Validate *validator.Validate
	MediaDir string
}

func NewEmployeeHandler(svc *service.EmployeeService, auth *service.AuthService, validate *validator.Validate, mediaDir string) *EmployeeHandler {
	return &EmployeeHandler{
		Service:  svc,
		Auth:     auth,
		Validate: validate,
		MediaDir: mediaDir,
	}
}

func (h *EmployeeHandler) List(c echo.Context) error {
	page, perPage := parsePage(c)
	filter := repository.EmployeeFilter{
		Department: c.QueryParam("department"),
		Status:     c.QueryParam("status"),
		Search:     c.QueryParam("search"),
		SortBy:     c.QueryParam("sort"),
		Page:       page,
		PerPage:    perPage,
	}
	result, err := h.Service.List(c.Request().Context(), filter)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.EmployeeListResponse{
		Employees: dto.EmployeeResponsesFromEntities(result.Employees),
		Total:     result.Total,
		Page:      result.Page,
		PerPage:   result.PerPage,
	})
}

func (h *EmployeeHandler) Create(c echo.Context) error {
	var req dto.CreateEmployeeRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	joinDate, err := parseJoinDate(req.JoinDate)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	input := service.CreateEmployeeInput{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: entity.Department(req.Department),
		Position:   req.Position,
		JoinDate:   joinDate,
		Address:    req.Address,
		Phone:      req.Phone,
		Status:     entity.EmployeeStatus(req.Status),
	}
	result, err := h.Service.Create(c.Request().Context(), input)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.CreateEmployeeResponse{
		Employee:     dto.EmployeeResponseFromEntity(result.Employee),
		Username:     result.Username,
		TempPassword: result.TempPassword,
	})
}

func (h *EmployeeHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid employee id"))
	}
	employee, err := h.Service.Get(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.EmployeeResponseFromEntity(employee))
}

func (h *EmployeeHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid employee id"))
	}
	var req dto.UpdateEmployeeRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if err := h.validate(req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}

	joinDate, err := parseJoinDate(req.JoinDate)
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	input := service.UpdateEmployeeInput{
		Department: entity.Department(req.Department),
		Position:   req.Position,
		JoinDate:   joinDate,
		Address:    req.Address,
		Phone:      req.Phone,
		Status:     entity.EmployeeStatus(req.Status),
	}
	employee, err := h.Service.Update(c.Request().Context(), id, input)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.EmployeeResponseFromEntity(employee))
}

func (h *EmployeeHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid employee id"))
	}
	if err := h.Service.Delete(c.Request().Context(), id); err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *EmployeeHandler) Dashboard(c echo.Context) error {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	role, _ := middleware.RoleFromContext(c)

	var scope *uuid.UUID
	if role != string(entity.UserRoleAdmin) {
		scope = &userID
	}
	stats, err := h.Service.Dashboard(c.Request().Context(), scope)
	if err != nil {
		return writeServiceError(c, err)
	}

	departmentCounts := make(map[string]int, len(stats.DepartmentCounts))
	for department, count := range stats.DepartmentCounts {
		departmentCounts[string(department)] = count
	}
	return c.JSON(http.StatusOK, dto.DashboardResponse{
		TotalEmployees:   stats.TotalEmployees,
		ActiveEmployees:  stats.ActiveEmployees,
		Departments:      stats.Departments,
		NewThisMonth:     stats.NewThisMonth,
		DepartmentCounts: departmentCounts,
		RecentEmployees:  dto.EmployeeResponsesFromEntities(stats.RecentEmployees),
	})
}

func (h *EmployeeHandler) Import(c echo.Context) error {
	var records []service.ImportRecord
	if err := decodeJSON(c, &records); err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid JSON"))
	}
	count, err := h.Service.Import(c.Request().Context(), records)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ImportResponse{Success: true, ImportedCount: count})
}

func (h *EmployeeHandler) ClearAll(c echo.Context) error {
	count, err := h.Service.ClearAll(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ClearAllResponse{Success: true, RemovedCount: count})
}

func (h *EmployeeHandler) UploadPhoto(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("invalid employee id"))
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return writeError(c, http.StatusBadRequest, errors.New("missing photo upload"))
	}

	source, err := file.Open()
	if err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	defer source.Close()

	directory := filepath.Join(h.MediaDir, "profile_pics")
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}
	filename := id.String() + filepath.Ext(file.Filename)
	target := filepath.Join(directory, filename)

	destination, err := os.Create(target)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}
	defer destination.Close()
	if _, err := io.Copy(destination, source); err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}

	relative := filepath.ToSlash(filepath.Join("profile_pics", filename))
	if err := h.Service.AttachPhoto(c.Request().Context(), id, relative); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"profile_picture": relative})
}

func (h *EmployeeHandler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func parseJoinDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(joinDateLayout, value)
	if err != nil {
		return time.Time{}, errors.New("join_date must be YYYY-MM-DD")
	}
	return parsed, nil
}
