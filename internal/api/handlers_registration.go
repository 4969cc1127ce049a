package api

import (
	"io"
	"mime/multipart"

	"github.com/edjs-platform/edjs/internal/models"
	"github.com/edjs-platform/edjs/internal/services"
	"github.com/gofiber/fiber/v2"
)

const documentsFormField = "files"

type registrationValidationInput struct {
	services.RegistrationInput
	Step services.RegistrationStep `json:"step"`
}

type schoolOption struct {
	ID     uint                    `json:"id"`
	Name   string                  `json:"name"`
	Type   models.OrganizationType `json:"type"`
	City   string                  `json:"city,omitempty"`
	Domain string                  `json:"domain,omitempty"`
}

type documentResultPayload struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Size    int64  `json:"size,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (handler *Handler) RegistrationSteps(c *fiber.Ctx) error {
	category := services.RegistrationCategory(c.Query("category"))
	steps, err := services.RegistrationSteps(category)
	if err != nil {
		return handler.respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"category": category, "steps": steps})
}

// ValidateRegistration checks one step when "step" is set, otherwise every
// step of the chosen category. Nothing is written.
func (handler *Handler) ValidateRegistration(c *fiber.Ctx) error {
	input := registrationValidationInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	step := input.Step
	var err error
	if step != "" {
		err = handler.registrationService.ValidateStep(step, input.RegistrationInput)
	} else {
		step, err = handler.registrationService.Validate(input.RegistrationInput)
	}
	if err != nil {
		status, code, known := classifyError(err)
		if !known {
			return handler.respondServiceError(c, err)
		}
		return c.Status(status).JSON(fiber.Map{
			"error":   code,
			"message": handler.localizedError(c, code),
			"step":    step,
		})
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) RegistrationSchools(c *fiber.Ctx) error {
	role, ok := models.ParseRole(c.Query("user_type"))
	if !ok {
		return handler.apiError(c, fiber.StatusBadRequest, "registration_user_type_invalid")
	}
	schools, err := handler.registrationService.SelectableSchools(role)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	options := make([]schoolOption, 0, len(schools))
	for _, school := range schools {
		options = append(options, schoolOption{
			ID:     school.ID,
			Name:   school.Name,
			Type:   school.Type,
			City:   school.City,
			Domain: school.Domain,
		})
	}
	return c.JSON(fiber.Map{"schools": options, "other": services.OtherSchool})
}

// UploadDocuments stores a multipart batch. Each file gets its own result;
// a failed file never fails its siblings.
func (handler *Handler) UploadDocuments(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "document_batch_empty")
	}

	files := form.File[documentsFormField]
	uploads := make([]services.DocumentUpload, 0, len(files))
	for _, file := range files {
		uploads = append(uploads, uploadFromHeader(file))
	}

	results, err := handler.documentService.StoreBatch(c.UserContext(), uploads)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	payload := make([]documentResultPayload, 0, len(results))
	stored := 0
	for _, result := range results {
		entry := documentResultPayload{Name: result.Name, Path: result.Path, Size: result.Size}
		if result.Err != nil {
			_, code, _ := classifyError(result.Err)
			entry.Error = code
			entry.Message = handler.localizedError(c, code)
		} else {
			stored++
		}
		payload = append(payload, entry)
	}

	status := fiber.StatusCreated
	if stored == 0 {
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(fiber.Map{"documents": payload, "stored": stored})
}

func uploadFromHeader(file *multipart.FileHeader) services.DocumentUpload {
	return services.DocumentUpload{
		Name: file.Filename,
		Size: file.Size,
		Open: func() (io.ReadCloser, error) {
			return file.Open()
		},
	}
}

func (handler *Handler) Register(c *fiber.Ctx) error {
	input := services.RegistrationInput{}
	if err := c.BodyParser(&input); err != nil {
		return handler.apiError(c, fiber.StatusBadRequest, "invalid_request")
	}

	result, err := handler.registrationService.Submit(c.UserContext(), input)
	if err != nil {
		return handler.respondServiceError(c, err)
	}

	response := fiber.Map{
		"ok":                  true,
		"user_id":             result.User.ID,
		"profile_id":          result.Profile.ID,
		"role":                result.Profile.Role,
		"verification_status": result.Profile.VerificationStatus,
		"confirmation_sent":   result.ConfirmationSent,
	}
	if result.ConfirmationSent {
		response["message"] = handler.i18n.Translate(currentLanguage(c), "auth.confirmation_sent")
	}
	if result.Organization != nil {
		response["organization_id"] = result.Organization.ID
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}
