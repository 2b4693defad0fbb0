package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Aashish23092/annual-report-analytics/dto"
)

// parseFilterQuery reads years (years[] or years, repeated or comma
// separated), industry and currency from the query string.
func parseFilterQuery(c *gin.Context) (dto.FilterQuery, error) {
	var q dto.FilterQuery

	raw := append(c.QueryArray("years[]"), c.QueryArray("years")...)
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			y, err := strconv.Atoi(part)
			if err != nil {
				return q, fmt.Errorf("%w: year %q", dto.ErrInvalidFilter, part)
			}
			q.Years = append(q.Years, y)
		}
	}

	q.Industry = strings.TrimSpace(c.Query("industry"))

	cur, err := parseCurrency(c.Query("currency"))
	if err != nil {
		return q, err
	}
	q.Currency = cur
	return q, nil
}

func parseCurrency(s string) (dto.Currency, error) {
	switch dto.Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case dto.CurrencyLKR:
		return dto.CurrencyLKR, nil
	case dto.CurrencyUSD:
		return dto.CurrencyUSD, nil
	}
	return "", fmt.Errorf("%w: currency %q", dto.ErrInvalidFilter, s)
}

// encodeFilterQuery renders q back into query parameters.
func encodeFilterQuery(q dto.FilterQuery) url.Values {
	v := url.Values{}
	for _, y := range q.Years {
		v.Add("years", strconv.Itoa(y))
	}
	if q.Industry != "" {
		v.Set("industry", q.Industry)
	}
	if q.Currency != "" {
		v.Set("currency", string(q.Currency))
	}
	return v
}
