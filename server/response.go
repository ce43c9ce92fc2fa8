package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/gotd/td/bin"
	"github.com/gotd/td/tdp"
	"github.com/gotd/td/tgerr"
	"github.com/iancoleman/strcase"
	"go.uber.org/zap"

	"github.com/sudo-xjx-code/xjx-tele-gateway/mtproto"
	"github.com/sudo-xjx-code/xjx-tele-gateway/telegram"
)

// result is a TL object returned by the engine.
type result interface {
	TypeName() string
}

// tlObject is a generated TL type carrying schema field names.
type tlObject interface {
	TypeName() string
	TypeInfo() tdp.Type
}

var fieldsType = reflect.TypeOf(bin.Fields(0))

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("Write response", zap.Error(err))
	}
}

// writeResult writes {"_": type, "result": object}. Every nested TL object
// carries its own "_" tag and schema (snake_case) field names.
func (s *Server) writeResult(w http.ResponseWriter, res result) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("_")
	e.Str(res.TypeName())
	e.FieldStart("result")
	encodeValue(e, reflect.ValueOf(res))
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(e.Bytes()); err != nil {
		s.log.Warn("Write response", zap.Error(err))
	}
}

func encodeValue(e *jx.Encoder, v reflect.Value) {
	if !v.IsValid() {
		e.Null()
		return
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			e.Null()
			return
		}
		if obj, ok := v.Interface().(tlObject); ok && v.Kind() == reflect.Ptr {
			encodeObject(e, obj, v.Elem())
			return
		}
		encodeValue(e, v.Elem())
	case reflect.Struct:
		// TL methods are declared on pointer receivers.
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		if obj, ok := ptr.Interface().(tlObject); ok {
			encodeObject(e, obj, ptr.Elem())
			return
		}
		encodeStruct(e, v)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			e.Base64(v.Bytes())
			return
		}
		e.ArrStart()
		for i := 0; i < v.Len(); i++ {
			encodeValue(e, v.Index(i))
		}
		e.ArrEnd()
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			e.Base64(b)
			return
		}
		e.ArrStart()
		for i := 0; i < v.Len(); i++ {
			encodeValue(e, v.Index(i))
		}
		e.ArrEnd()
	case reflect.Map:
		e.ObjStart()
		iter := v.MapRange()
		for iter.Next() {
			e.FieldStart(fmt.Sprint(iter.Key().Interface()))
			encodeValue(e, iter.Value())
		}
		e.ObjEnd()
	case reflect.Bool:
		e.Bool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		e.Int64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		e.UInt64(v.Uint())
	case reflect.Float32, reflect.Float64:
		e.Float64(v.Float())
	case reflect.String:
		e.Str(v.String())
	default:
		e.Null()
	}
}

func encodeObject(e *jx.Encoder, obj tlObject, v reflect.Value) {
	info := obj.TypeInfo()

	e.ObjStart()
	e.FieldStart("_")
	e.Str(obj.TypeName())
	for _, f := range info.Fields {
		if f.Null {
			// Optional field not set.
			continue
		}
		fv := v.FieldByName(f.Name)
		if !fv.IsValid() || fv.Type() == fieldsType {
			continue
		}
		e.FieldStart(f.SchemaName)
		encodeValue(e, fv)
	}
	e.ObjEnd()
}

func encodeStruct(e *jx.Encoder, v reflect.Value) {
	t := v.Type()

	e.ObjStart()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Type == fieldsType {
			continue
		}
		e.FieldStart(strcase.ToSnake(f.Name))
		encodeValue(e, v.Field(i))
	}
	e.ObjEnd()
}

func badRequest(message string) errorBody {
	return errorBody{Code: http.StatusBadRequest, Message: message}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if d, ok := tgerr.AsFloodWait(err); ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(d.Seconds())))
	}
	if status >= http.StatusInternalServerError {
		s.log.Warn("Request failed",
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
		)
	}
	s.writeJSON(w, status, body)
}

func errorResponse(err error) (int, errorBody) {
	var (
		validationErr *telegram.ValidationError
		timeoutErr    *mtproto.TimeoutError
	)
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, errorBody{Code: http.StatusBadRequest, Message: validationErr.Error()}
	}
	if errors.Is(err, telegram.ErrNoPendingCode) {
		return http.StatusConflict, errorBody{Code: http.StatusConflict, Message: err.Error()}
	}
	if errors.As(err, &timeoutErr) {
		return http.StatusGatewayTimeout, errorBody{Code: timeoutErr.Code, Message: timeoutErr.Message}
	}
	if rpcErr, ok := tgerr.As(err); ok {
		status := rpcErr.Code
		switch {
		case status == 420:
			status = http.StatusTooManyRequests
		case status < 400 || status > 599:
			status = http.StatusBadGateway
		}
		return status, errorBody{Code: rpcErr.Code, Message: rpcErr.Message, Type: rpcErr.Type}
	}
	return http.StatusBadGateway, errorBody{Code: http.StatusBadGateway, Message: err.Error()}
}
