package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Error writes {"error": msg} with status.
func Error(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// Internal logs err and writes a generic 500 error.
func Internal(c *fiber.Ctx, err error, msg string) error {
	log.Error().Err(err).Str("path", c.Path()).Msg(msg)

	return Error(c, fiber.StatusInternalServerError, MsgInternal)
}

// Success writes {"success": msg} merged with extra.
func Success(c *fiber.Ctx, msg string, extra fiber.Map) error {
	body := fiber.Map{"success": msg}
	for k, v := range extra {
		body[k] = v
	}

	return c.JSON(body)
}

// ParseID parses a positive integer id.
func ParseID(raw string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}

	return id, true
}

// ParseIDs parses every id of raw, failing on the first invalid one.
func ParseIDs(raw []string) ([]uint64, bool) {
	ids := make([]uint64, 0, len(raw))

	for _, r := range raw {
		id, ok := ParseID(r)
		if !ok {
			return nil, false
		}

		ids = append(ids, id)
	}

	return ids, true
}

// FormValues returns every value of a multi valued form or query field.
func FormValues(c *fiber.Ctx, key string) []string {
	var values []string

	if form, err := c.MultipartForm(); err == nil {
		values = append(values, form.Value[key]...)

		return values
	}

	for _, v := range c.Context().PostArgs().PeekMulti(key) {
		values = append(values, string(v))
	}

	return values
}

// QueryValues returns every value of a repeated query parameter.
func QueryValues(c *fiber.Ctx, key string) []string {
	var values []string

	for _, v := range c.Context().QueryArgs().PeekMulti(key) {
		values = append(values, string(v))
	}

	return values
}
