// Package batch implements the vendor batch-request codec (§4.11): decoding
// a batch envelope into independent sub-requests, resolving their relative
// URLs against the outer request, and composing a per-subrequest response
// envelope. The package also provides the batch-request plugin and a
// Splitter that the random-error plugin (pkg/chaos) can use through its
// BatchSplitter interface. The mock-response plugin (pkg/mockplugin) does
// not use this codec; it matches a batch request like any other request.
package batch
