package handlers

import (
	"fmt"
	"log"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"ridesharing/internal/apperrors"
	"ridesharing/internal/dto"
	"ridesharing/internal/entities"
	"ridesharing/internal/middleware"
	"ridesharing/internal/services"

	"github.com/gofiber/fiber/v2"
)

// Options configures every CrudHandler of an application.
type Options struct {
	// AppName prefixes alert headers and alert keys.
	AppName         string
	DefaultPageSize int
	MaxPageSize     int
}

func (o Options) withDefaults() Options {
	if o.AppName == "" {
		o.AppName = "ridesharingApp"
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 20
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
	return o
}

var patchContentTypes = map[string]bool{
	fiber.MIMEApplicationJSON:      true,
	"application/merge-patch+json": true,
}

// CrudHandler handles the REST endpoints of one entity.
type CrudHandler[D dto.Identified] struct {
	entity  entities.Definition
	service services.Service[D]
	opts    Options
}

// NewCrudHandler creates a new CrudHandler.
func NewCrudHandler[D dto.Identified](entity entities.Definition, service services.Service[D], opts Options) *CrudHandler[D] {
	return &CrudHandler[D]{
		entity:  entity,
		service: service,
		opts:    opts.withDefaults(),
	}
}

// RegisterRoutes registers the entity routes under /<plural>.
func (h *CrudHandler[D]) RegisterRoutes(router fiber.Router, mw ...fiber.Handler) {
	routes := router.Group("/"+h.entity.Plural, mw...)
	routes.Get("/", h.HandleList)
	routes.Get("/:id", h.HandleGet)
	routes.Post("/", h.HandleCreate)
	routes.Put("/:id", h.HandleUpdate)
	routes.Patch("/:id", h.HandlePartialUpdate)
	routes.Delete("/:id", h.HandleDelete)
}

// HandleCreate creates a new record. The body must not carry an id.
func (h *CrudHandler[D]) HandleCreate(c *fiber.Ctx) error {
	var body D
	if err := h.parseBody(c, &body); err != nil {
		return err
	}

	saved, err := h.service.Save(c.UserContext(), body)
	if err != nil {
		return err
	}

	id := *saved.GetID()
	c.Location(fmt.Sprintf("/api/%s/%d", h.entity.Plural, id))
	setEntityAlert(c, h.opts.AppName, h.entity.Name, "created", id)
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// HandleUpdate replaces an existing record.
func (h *CrudHandler[D]) HandleUpdate(c *fiber.Ctx) error {
	id, err := h.pathID(c)
	if err != nil {
		return err
	}
	var body D
	if err := h.parseBody(c, &body); err != nil {
		return err
	}
	if err := h.checkBodyID(body, id); err != nil {
		return err
	}

	exists, err := h.service.ExistsByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.InvalidRequest(h.entity.Name, "idnotfound", "Entity not found")
	}

	updated, err := h.service.Update(c.UserContext(), body)
	if err != nil {
		return err
	}
	setEntityAlert(c, h.opts.AppName, h.entity.Name, "updated", id)
	return c.JSON(updated)
}

// HandlePartialUpdate merges the supplied fields into an existing record.
func (h *CrudHandler[D]) HandlePartialUpdate(c *fiber.Ctx) error {
	mediaType, _, err := mime.ParseMediaType(c.Get(fiber.HeaderContentType))
	if err != nil || !patchContentTypes[mediaType] {
		appErr := apperrors.InvalidRequest(h.entity.Name, "contenttype", "Unsupported content type for partial update")
		appErr.Status = fiber.StatusUnsupportedMediaType
		return appErr
	}

	id, err := h.pathID(c)
	if err != nil {
		return err
	}
	var body D
	if err := h.parseBody(c, &body); err != nil {
		return err
	}
	if err := h.checkBodyID(body, id); err != nil {
		return err
	}

	result, err := h.service.PartialUpdate(c.UserContext(), body)
	if err != nil {
		return err
	}
	setEntityAlert(c, h.opts.AppName, h.entity.Name, "updated", id)
	return c.JSON(result.Value)
}

// HandleList returns the records in the requested order. Paginated entities
// honour page and size and describe the result in X-Total-Count and Link.
func (h *CrudHandler[D]) HandleList(c *fiber.Ctx) error {
	q := services.Query{}
	for _, raw := range c.Context().QueryArgs().PeekMulti("sort") {
		order, err := h.parseSort(string(raw))
		if err != nil {
			return err
		}
		q.Sort = append(q.Sort, order)
	}

	if c.QueryBool("mine") {
		principal, ok := middleware.PrincipalFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Listing owned records requires authentication")
		}
		q.Owner = &principal.MemberID
	}

	if h.entity.Paginated {
		q.Page = c.QueryInt("page", 0)
		if q.Page < 0 {
			q.Page = 0
		}
		q.Size = c.QueryInt("size", h.opts.DefaultPageSize)
		if q.Size <= 0 {
			q.Size = h.opts.DefaultPageSize
		}
		if q.Size > h.opts.MaxPageSize {
			q.Size = h.opts.MaxPageSize
		}
	}

	page, err := h.service.FindAll(c.UserContext(), q)
	if err != nil {
		return err
	}

	if h.entity.Paginated {
		query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
		if err != nil {
			query = url.Values{}
		}
		c.Set(HeaderTotalCount, strconv.FormatInt(page.Total, 10))
		c.Set(fiber.HeaderLink, paginationLink(c.BaseURL()+c.Path(), query, q.Page, q.Size, page.Total))
	}
	return c.JSON(page.Items)
}

// HandleGet returns one record or 404.
func (h *CrudHandler[D]) HandleGet(c *fiber.Ctx) error {
	id, err := h.pathID(c)
	if err != nil {
		return err
	}

	found, ok, err := h.service.FindOne(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound(h.entity.Name, id)
	}
	return c.JSON(found)
}

// HandleDelete removes a record. It answers 204 whether or not the record existed.
func (h *CrudHandler[D]) HandleDelete(c *fiber.Ctx) error {
	id, err := h.pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	setEntityAlert(c, h.opts.AppName, h.entity.Name, "deleted", id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CrudHandler[D]) pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, apperrors.InvalidRequest(h.entity.Name, "idinvalid", fmt.Sprintf("Invalid ID %q", c.Params("id")))
	}
	return id, nil
}

func (h *CrudHandler[D]) parseBody(c *fiber.Ctx, out *D) error {
	if err := c.BodyParser(out); err != nil {
		log.Printf("Error parsing %s request body: %v", h.entity.Name, err)
		return apperrors.InvalidRequest(h.entity.Name, "bodyinvalid", "Invalid request body")
	}
	return nil
}

func (h *CrudHandler[D]) checkBodyID(body D, pathID int64) error {
	id := body.GetID()
	if id == nil {
		return apperrors.MissingID(h.entity.Name)
	}
	if *id != pathID {
		return apperrors.IDMismatch(h.entity.Name)
	}
	return nil
}

// parseSort reads "property" or "property,asc|desc".
func (h *CrudHandler[D]) parseSort(raw string) (services.SortOrder, error) {
	property, dir, _ := strings.Cut(raw, ",")
	order := services.SortOrder{Property: strings.TrimSpace(property)}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		order.Desc = true
	default:
		return order, apperrors.InvalidRequest(h.entity.Name, "sortinvalid", fmt.Sprintf("Invalid sort direction %q", dir))
	}
	if _, ok := h.entity.Column(order.Property); !ok {
		return order, apperrors.InvalidRequest(h.entity.Name, "sortinvalid", fmt.Sprintf("Cannot sort by %q", order.Property))
	}
	return order, nil
}
