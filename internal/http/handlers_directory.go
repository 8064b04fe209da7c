package http

import (
	"net/http"

	"orgfees/internal/services"
)

// DirectoryHandler serves organizations, categories and students.
type DirectoryHandler struct {
	service *services.DirectoryService
}

func NewDirectoryHandler(service *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

func (h *DirectoryHandler) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.service.ListOrganizations(r.Context())
	writeResult(w, r, "list organizations", orgs, err)
}

func (h *DirectoryHandler) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(errBody.Error()).Write(w)
		return
	}
	org, err := h.service.CreateOrganization(r.Context(), req.input())
	writeResult(w, r, "create organization", org, err)
}

func (h *DirectoryHandler) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.GetOrganization(r.Context(), r.PathValue("id"))
	writeResult(w, r, "get organization", org, err)
}

func (h *DirectoryHandler) handleDeleteOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.service.DeleteOrganization(r.Context(), r.PathValue("id"))
	writeResult(w, r, "delete organization", org, err)
}

func (h *DirectoryHandler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context(), sanitizeInput(r.URL.Query().Get("organization")))
	writeResult(w, r, "list categories", categories, err)
}

func (h *DirectoryHandler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(errBody.Error()).Write(w)
		return
	}
	category, err := h.service.CreateCategory(r.Context(), req.input())
	writeResult(w, r, "create category", category, err)
}

func (h *DirectoryHandler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetCategoryDetail(r.Context(), r.PathValue("id"))
	writeResult(w, r, "get category", detail, err)
}

func (h *DirectoryHandler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(errBody.Error()).Write(w)
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), r.PathValue("id"), req.input())
	writeResult(w, r, "update category", category, err)
}

func (h *DirectoryHandler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.DeleteCategory(r.Context(), r.PathValue("id"))
	writeResult(w, r, "delete category", category, err)
}

func (h *DirectoryHandler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.ListStudents(r.Context(), sanitizeInput(r.URL.Query().Get("course")))
	writeResult(w, r, "list students", students, err)
}

func (h *DirectoryHandler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(errBody.Error()).Write(w)
		return
	}
	student, err := h.service.CreateStudent(r.Context(), req.input())
	writeResult(w, r, "create student", student, err)
}

func (h *DirectoryHandler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetStudentDetail(r.Context(), r.PathValue("studentID"))
	writeResult(w, r, "get student", detail, err)
}

func (h *DirectoryHandler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequest(errBody.Error()).Write(w)
		return
	}
	student, err := h.service.UpdateStudent(r.Context(), r.PathValue("studentID"), req.input())
	writeResult(w, r, "update student", student, err)
}

func (h *DirectoryHandler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.service.DeleteStudent(r.Context(), r.PathValue("studentID"))
	writeResult(w, r, "delete student", student, err)
}
