package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the session host.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func call[Req, Resp any](c *Client, method string, req Req) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(ServiceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves host and session status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusRequest, StatusResponse](c, "Status", StatusRequest{})
}

// Scan lists a library directory and installs it as the current tree.
func (c *Client) Scan(req ScanRequest) (*ScanResponse, error) {
	return call[ScanRequest, ScanResponse](c, "Scan", req)
}

// Tree returns a copy of the library tree.
func (c *Client) Tree() (*TreeResponse, error) {
	return call[TreeRequest, TreeResponse](c, "Tree", TreeRequest{})
}

// Toggle flips the selection of the given identifiers.
func (c *Client) Toggle(req ToggleRequest) (*ToggleResponse, error) {
	return call[ToggleRequest, ToggleResponse](c, "Toggle", req)
}

// Settings returns the global settings.
func (c *Client) Settings() (*SettingsResponse, error) {
	return call[SettingsRequest, SettingsResponse](c, "Settings", SettingsRequest{})
}

// SetSettings changes global settings.
func (c *Client) SetSettings(req SetSettingsRequest) (*SetSettingsResponse, error) {
	return call[SetSettingsRequest, SetSettingsResponse](c, "SetSettings", req)
}

// SetOverride edits the per-file settings of one item.
func (c *Client) SetOverride(req SetOverrideRequest) (*SetOverrideResponse, error) {
	return call[SetOverrideRequest, SetOverrideResponse](c, "SetOverride", req)
}

// Process submits files to the processing backend.
func (c *Client) Process(req ProcessRequest) (*ProcessResponse, error) {
	return call[ProcessRequest, ProcessResponse](c, "Process", req)
}

// Cancel requests cancellation of one job.
func (c *Client) Cancel(id string) (*CancelResponse, error) {
	return call[CancelRequest, CancelResponse](c, "Cancel", CancelRequest{ID: id})
}

// Abort closes every live stream and optionally cancels every remote job.
func (c *Client) Abort(remote bool) (*AbortResponse, error) {
	return call[AbortRequest, AbortResponse](c, "Abort", AbortRequest{Remote: remote})
}

// Upload attaches an SRT file to a video.
func (c *Client) Upload(req UploadRequest) (*UploadResponse, error) {
	return call[UploadRequest, UploadResponse](c, "Upload", req)
}

// Logs returns buffered job log lines.
func (c *Client) Logs(req LogsRequest) (*LogsResponse, error) {
	return call[LogsRequest, LogsResponse](c, "Logs", req)
}

// Shutdown asks the host to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	return call[ShutdownRequest, ShutdownResponse](c, "Shutdown", ShutdownRequest{})
}
