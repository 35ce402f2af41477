package main

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"

	"github.com/asdine/storm/v3"
	"github.com/mdouchement/travellog/internal/model"
	"github.com/mdouchement/travellog/pkg/stormcodec"
	"github.com/mdouchement/travellog/pkg/stormsql"
	"github.com/mdouchement/travellog/pkg/structs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// go run tools/console/main.go travellog.db "SELECT ID, Description FROM pending WHERE Synced = false ORDER BY CreatedAt DESC;"

type table struct {
	model   func() any
	records func() any
}

var tables = map[string]table{
	"stories": {
		model:   func() any { return &model.Story{} },
		records: func() any { return &[]*model.Story{} },
	},
	"bookmarks": {
		model:   func() any { return &model.Bookmark{} },
		records: func() any { return &[]*model.Bookmark{} },
	},
	"pending": {
		model:   func() any { return &model.Pending{} },
		records: func() any { return &[]*model.Pending{} },
	},
	"preferences": {
		model:   func() any { return &model.Preference{} },
		records: func() any { return &[]*model.Preference{} },
	},
	"responses": {
		model:   func() any { return &model.CachedResponse{} },
		records: func() any { return &[]*model.CachedResponse{} },
	},
}

func main() {
	var codec string

	c := &cobra.Command{
		Use:   "console",
		Short: "SQL console for travellog database",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			sc, err := stormsql.ParseSelect(args[1])
			if err != nil {
				return err
			}

			t, ok := tables[sc.Tablename]
			if !ok {
				return errors.Errorf("unknown tablename: %s", sc.Tablename)
			}

			mu, err := stormcodec.Lookup(codec)
			if err != nil {
				return err
			}

			fmt.Println("Opening", args[0])
			db, err := storm.Open(args[0], storm.Codec(mu))
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			//
			// Prepare request
			//

			query := db.Select(sc.Matcher)
			if sc.Skip > 0 {
				query.Skip(sc.Skip)
			}
			if sc.Limit > 0 {
				query.Limit(sc.Limit)
			}
			if len(sc.OrderBy) > 0 {
				query.OrderBy(sc.OrderBy...)
				if sc.OrderByReversed {
					query.Reverse()
				}
			}

			if sc.Count {
				n, err := query.Count(t.model())
				if err != nil {
					return errors.Wrap(err, "could not perform query")
				}
				fmt.Println("Count:", n)
				return nil
			}

			return list(sc, t, query)
		},
	}
	c.Flags().StringVar(&codec, "codec", "msgpack", "Storage codec of the database (msgpack, cbor or binc)")

	if err := c.Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func list(sc *stormsql.SelectClause, t table, query storm.Query) error {
	records := t.records()

	err := query.Find(records)
	if err == storm.ErrNotFound {
		fmt.Println("[]")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "could not perform query")
	}

	if len(sc.SelectedFields) == 0 {
		return jsondump(records)
	}

	rv := reflect.ValueOf(records).Elem()
	projections := make([]map[string]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		projection, err := structs.Project(rv.Index(i).Interface(), sc.SelectedFields...)
		if err != nil {
			return err
		}
		projections = append(projections, projection)
	}

	return jsondump(projections)
}

func jsondump(v any) error {
	d, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not serialize records")
	}
	fmt.Println(string(d))
	return nil
}
