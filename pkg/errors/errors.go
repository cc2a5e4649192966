// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreInvalidInput       Code = "store.invalid_input"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"
	CodeStoreDatabaseFailure    Code = "store.database.failure"
	CodeStoreMemoryNotFound     Code = "store.memory.get.not_found"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeRuntimeNotImplemented      Code = "runtime.method.not_implemented"
	CodeRuntimePluginInvalid       Code = "runtime.plugin.invalid"
	CodeRuntimePluginInitFailure   Code = "runtime.plugin.init.failure"
	CodeRuntimeServiceStartFailure Code = "runtime.service.start.failure"
	CodeRuntimeServiceStopFailure  Code = "runtime.service.stop.failure"
	CodeRuntimeServiceWaitTimeout  Code = "runtime.service.wait.timeout"
	CodeRuntimeServiceNotFound     Code = "runtime.service.get.not_found"
	CodeRuntimeEventHandlerFailure Code = "runtime.event.handler.failure"
	CodeRuntimeProviderTimeout     Code = "runtime.provider.timeout"
	CodeRuntimeProviderPanic       Code = "runtime.provider.panic.failure"
	CodeRuntimeAgentEnsureFailure  Code = "runtime.agent.ensure.failure"
	CodeRuntimeConnectionInvalid   Code = "runtime.connection.invalid_input"
	CodeRuntimeMessageInvalid      Code = "runtime.message.invalid_input"

	CodePluginNotFound       Code = "plugin.not_found"
	CodePluginDuplicate      Code = "plugin.registry.conflict"
	CodePluginRouteInvalid   Code = "plugin.route.invalid"
	CodePluginDependencyLoop Code = "plugin.dependency.cycle.invalid"

	CodePluginLifecycleTransitionInvalid Code = "plugin.lifecycle.transition.invalid"

	CodeHostToolNotFound     Code = "host.tool.not_found"
	CodeHostToolRejected     Code = "host.tool.validate.invalid"
	CodeHostToolInputInvalid Code = "host.tool.input.invalid_input"
	CodeHostHookFailure      Code = "host.hook.failure"

	CodeServerRequestInvalid  Code = "server.request.invalid"
	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerEntityNotFound  Code = "server.entity.not_found"
	CodeServerConfigInvalid   Code = "server.config.invalid"
	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerShutdownFailure Code = "server.shutdown.failure"
	CodeServerNotImplemented  Code = "server.method.not_implemented"

	CodeSecretInvalidInput   Code = "secret.input.invalid_input"
	CodeSecretNotFound       Code = "secret.get.not_found"
	CodeSecretStoreFailure   Code = "secret.store.failure"
	CodeSecretDeleteFailure  Code = "secret.delete.failure"
	CodeSecretListFailure    Code = "secret.list.failure"
	CodeSecretResolveFailure Code = "secret.resolve.failure"

	CodeTelemetrySetupFailure Code = "telemetry.setup.failure"

	CodeCLIInputInvalid    Code = "cli.input.invalid"
	CodeCLISetupFailure    Code = "cli.setup.failure"
	CodeCLIAgentNotRunning Code = "cli.agent.not_running"
	CodeCLIRequestFailure  Code = "cli.request.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field. Fields with an empty key are
// dropped.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldMethod(value string) Attr      { return Field("method", value) }
func FieldPlugin(value string) Attr      { return Field("plugin", value) }
func FieldServiceType(value string) Attr { return Field("service_type", value) }
func FieldTool(value string) Attr        { return Field("tool", value) }

func builder(code Code, fields []Attr) oops.OopsErrorBuilder {
	b := oops.Code(code)
	for _, f := range fields {
		if f.Key != "" {
			b = b.With(f.Key, f.Value)
		}
	}
	return b
}

func New(code Code, msg string, fields ...Attr) error {
	return builder(code, fields).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}
	return builder(code, fields).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain, keeping its code.
// Uncoded errors become CodeServerInternalFailure.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}
	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}
	return builder(code, fields).Wrap(err)
}

// Join combines errs into one internal failure; nil entries are skipped.
func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

// CodeOf returns the innermost code in err's chain, or "" when err carries
// none.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	oe, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch c := oe.Code().(type) {
	case nil:
		return ""
	case Code:
		return c
	case string:
		return Code(c)
	default:
		return Code(fmt.Sprint(c))
	}
}

// FieldsOf returns the structured fields collected along err's chain.
func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}
	oe, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	return oe.Context()
}

func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// MethodOf returns the method name attached to a not-implemented error.
func MethodOf(err error) string {
	m, _ := FieldsOf(err)["method"].(string)
	return m
}

// statusByReason maps the last segment of a code to an HTTP status.
var statusByReason = map[string]int{
	"not_implemented": http.StatusNotImplemented,
	"not_found":       http.StatusNotFound,
	"conflict":        http.StatusConflict,
	"invalid":         http.StatusBadRequest,
	"invalid_input":   http.StatusBadRequest,
	"invalid_value":   http.StatusBadRequest,
	"invalid_format":  http.StatusBadRequest,
	"timeout":         http.StatusGatewayTimeout,
}

func IsNotFound(err error) bool { return hasReason(err, "not_found") }
func IsConflict(err error) bool { return hasReason(err, "conflict") }
func IsTimeout(err error) bool  { return hasReason(err, "timeout") }

func IsInvalidInput(err error) bool {
	return hasReason(err, "invalid", "invalid_input", "invalid_value", "invalid_format")
}

// IsNotImplemented reports whether err comes from a deliberately unsupported
// runtime method.
func IsNotImplemented(err error) bool { return hasReason(err, "not_implemented") }

// HTTPStatus maps err's code to a response status; unclassified errors are
// 500.
func HTTPStatus(err error) int {
	if status, ok := statusByReason[reason(CodeOf(err))]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func hasReason(err error, reasons ...string) bool {
	r := reason(CodeOf(err))
	return r != "" && slices.Contains(reasons, r)
}

// reason returns the last dotted segment of code.
func reason(code Code) string {
	raw := string(code)
	if idx := strings.LastIndexByte(raw, '.'); idx >= 0 && idx < len(raw)-1 {
		return raw[idx+1:]
	}
	return raw
}
