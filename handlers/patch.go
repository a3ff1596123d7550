package handlers

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
)

// Keys a client may send but never change.
var immutableKeys = map[string]bool{"id": true, "_id": true, "createdAt": true, "updatedAt": true}

// patch is a partial update: only the JSON keys the client sent.
type patch[T any] struct {
	Set  bson.M          // bson field name -> new value
	Doc  *T              // body decoded into T, meaningful only for keys in Set
	Keys map[string]bool // JSON keys present in the body
	Raw  map[string]json.RawMessage
}

func (p *patch[T]) Has(jsonKey string) bool { return p.Keys[jsonKey] }

type fieldInfo struct {
	goName   string
	bsonName string
}

// fieldsByJSON maps the top-level JSON names of T to their Go and bson names.
// Embedded structs (the shared Base) are skipped.
func fieldsByJSON(t reflect.Type) map[string]fieldInfo {
	out := make(map[string]fieldInfo)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous || !f.IsExported() {
			continue
		}
		jsonName := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if jsonName == "" || jsonName == "-" {
			continue
		}
		bsonName := strings.SplitN(f.Tag.Get("bson"), ",", 2)[0]
		if bsonName == "" {
			bsonName = strings.ToLower(f.Name)
		}
		out[jsonName] = fieldInfo{goName: f.Name, bsonName: bsonName}
	}
	return out
}

// decodePatch reads the body as a partial T, validates only the fields that
// were sent and returns the $set document for them.
func decodePatch[T any](c *gin.Context) (*patch[T], error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, badRequest("Invalid request body")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, badRequest("Invalid request body: %v", err)
	}
	var doc T
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, badRequest("Invalid request body: %v", err)
	}

	fields := fieldsByJSON(reflect.TypeOf(doc))
	keys := make(map[string]bool, len(raw))
	var goNames, bsonNames []string
	for key := range raw {
		keys[key] = true
		info, ok := fields[key]
		if !ok || immutableKeys[key] {
			continue
		}
		goNames = append(goNames, info.goName)
		bsonNames = append(bsonNames, info.bsonName)
	}

	p := &patch[T]{Set: bson.M{}, Doc: &doc, Keys: keys, Raw: raw}
	if len(goNames) == 0 {
		return p, nil
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.StructPartial(doc, goNames...); err != nil {
			return nil, bindError(err)
		}
	}

	encoded, err := bson.Marshal(&doc)
	if err != nil {
		return nil, err
	}
	var full bson.M
	if err := bson.Unmarshal(encoded, &full); err != nil {
		return nil, err
	}
	for _, name := range bsonNames {
		// omitempty fields sent empty are left alone
		if v, ok := full[name]; ok {
			p.Set[name] = v
		}
	}
	return p, nil
}
