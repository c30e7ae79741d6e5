package handlers

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const HeaderTotalCount = "X-Total-Count"

// AlertHeader is the response header carrying the alert key of a mutation.
func AlertHeader(app string) string { return "X-" + app + "-alert" }

// ErrorHeader is the response header carrying the error key of a failure.
func ErrorHeader(app string) string { return "X-" + app + "-error" }

// ParamsHeader is the response header carrying the alert or error parameter.
func ParamsHeader(app string) string { return "X-" + app + "-params" }

func setEntityAlert(c *fiber.Ctx, app, entity, action string, id int64) {
	c.Set(AlertHeader(app), fmt.Sprintf("%s.%s.%s", app, entity, action))
	c.Set(ParamsHeader(app), strconv.FormatInt(id, 10))
}

func setFailureAlert(c *fiber.Ctx, app, entity, key string) {
	c.Set(ErrorHeader(app), "error."+key)
	c.Set(ParamsHeader(app), entity)
}

// paginationLink builds an RFC 5988 Link header value with next, prev, last
// and first relations. Pages are zero based.
func paginationLink(baseURL string, query url.Values, page, size int, total int64) string {
	lastPage := 0
	if size > 0 && total > 0 {
		lastPage = int(math.Ceil(float64(total)/float64(size))) - 1
	}

	link := func(p int, rel string) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(p))
		q.Set("size", strconv.Itoa(size))
		return fmt.Sprintf(`<%s?%s>; rel="%s"`, baseURL, q.Encode(), rel)
	}

	var links []string
	if page < lastPage {
		links = append(links, link(page+1, "next"))
	}
	if page > 0 {
		links = append(links, link(page-1, "prev"))
	}
	links = append(links, link(lastPage, "last"), link(0, "first"))
	return strings.Join(links, ",")
}
