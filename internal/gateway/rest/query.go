package rest

import (
	"net/http"

	"github.com/gorilla/schema"

	"github.com/thinkoverit/jugalbandi/internal/metadata"
)

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// listQuery is the pagination window on the list endpoint. Zero limit means
// everything.
type listQuery struct {
	Limit  int `schema:"limit"`
	Offset int `schema:"offset"`
}

func parseListQuery(r *http.Request) (*listQuery, error) {
	query := &listQuery{}
	if err := queryDecoder.Decode(query, r.URL.Query()); err != nil {
		return nil, err
	}
	if query.Limit < 0 {
		query.Limit = 0
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	return query, nil
}

func (q *listQuery) page(records []*metadata.Record) []*metadata.Record {
	if q.Offset >= len(records) {
		return []*metadata.Record{}
	}
	records = records[q.Offset:]
	if q.Limit > 0 && q.Limit < len(records) {
		records = records[:q.Limit]
	}
	return records
}
