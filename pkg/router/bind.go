package router

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"
)

func bindRequest(httpReq *http.Request, method string, req any) error {
	if method == http.MethodGet {
		return bindQuery(httpReq, req)
	}

	if httpReq.Body == nil {
		return nil
	}

	decoder := json.NewDecoder(httpReq.Body)
	if err := decoder.Decode(req); err != nil && err.Error() != "EOF" {
		return err
	}

	return nil
}

// bindQuery decodes url query parameters into the request struct using its
// json tags. Repeated parameters and comma lists both map to slices.
func bindQuery(httpReq *http.Request, req any) error {
	values := map[string]any{}
	for key, params := range httpReq.URL.Query() {
		if len(params) == 1 {
			if strings.Contains(params[0], ",") {
				values[key] = strings.Split(params[0], ",")
			} else {
				values[key] = params[0]
			}
		} else {
			values[key] = params
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           req,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(values)
}
