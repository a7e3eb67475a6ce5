package handler

import "net/http"

func (h *Handler) GetAllStudents(w http.ResponseWriter, r *http.Request) {
	users, err := h.repository.GetAllUsers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Список студентов", users)
}
