package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
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
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping checks daemon liveness.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.client.Call("Aircheck.Ping", PingRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Aircheck.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StationList returns all stations.
func (c *Client) StationList() (*StationListResponse, error) {
	var resp StationListResponse
	if err := c.client.Call("Aircheck.StationList", StationListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StationDescribe returns a station and its recent test attempts.
func (c *Client) StationDescribe(ref string) (*StationDescribeResponse, error) {
	var resp StationDescribeResponse
	if err := c.client.Call("Aircheck.StationDescribe", StationDescribeRequest{Ref: ref}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StationAdd registers a new station.
func (c *Client) StationAdd(req StationAddRequest) (*StationAddResponse, error) {
	var resp StationAddResponse
	if err := c.client.Call("Aircheck.StationAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ShowList returns shows, optionally narrowed to one station.
func (c *Client) ShowList(station string) (*ShowListResponse, error) {
	var resp ShowListResponse
	if err := c.client.Call("Aircheck.ShowList", ShowListRequest{Station: station}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ShowAdd registers a new show.
func (c *Client) ShowAdd(req ShowAddRequest) (*ShowAddResponse, error) {
	var resp ShowAddResponse
	if err := c.client.Call("Aircheck.ShowAdd", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ShowSetActive flips a show's scheduling eligibility.
func (c *Client) ShowSetActive(ref string, active bool) (*ShowSetActiveResponse, error) {
	var resp ShowSetActiveResponse
	if err := c.client.Call("Aircheck.ShowSetActive", ShowSetActiveRequest{Ref: ref, Active: active}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingList returns recordings, optionally narrowed to one show.
func (c *Client) RecordingList(show string) (*RecordingListResponse, error) {
	var resp RecordingListResponse
	if err := c.client.Call("Aircheck.RecordingList", RecordingListRequest{Show: show}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingRemove deletes one recording and its artifact.
func (c *Client) RecordingRemove(id int64) (*RecordingRemoveResponse, error) {
	var resp RecordingRemoveResponse
	if err := c.client.Call("Aircheck.RecordingRemove", RecordingRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingImport copies an external audio file into the library.
func (c *Client) RecordingImport(req RecordingImportRequest) (*RecordingImportResponse, error) {
	var resp RecordingImportResponse
	if err := c.client.Call("Aircheck.RecordingImport", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingExtend pushes a recording's expiry out.
func (c *Client) RecordingExtend(id int64, additionalDays int) (*RecordingExtendResponse, error) {
	var resp RecordingExtendResponse
	req := RecordingExtendRequest{ID: id, AdditionalDays: additionalDays}
	if err := c.client.Call("Aircheck.RecordingExtend", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordingSetTTL pins or clears a per-recording TTL override.
func (c *Client) RecordingSetTTL(req RecordingSetTTLRequest) (*RecordingSetTTLResponse, error) {
	var resp RecordingSetTTLResponse
	if err := c.client.Call("Aircheck.RecordingSetTTL", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Test runs the stream tester for one station or every eligible station.
func (c *Client) Test(station string) (*TestResponse, error) {
	var resp TestResponse
	if err := c.client.Call("Aircheck.Test", TestRequest{Station: station}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Record starts an on-demand session for a show.
func (c *Client) Record(show string, durationMinutes int) (*RecordResponse, error) {
	var resp RecordResponse
	req := RecordRequest{Show: show, DurationMinutes: durationMinutes}
	if err := c.client.Call("Aircheck.Record", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HousekeepingSweep triggers one housekeeping sweep.
func (c *Client) HousekeepingSweep() (*HousekeepingSweepResponse, error) {
	var resp HousekeepingSweepResponse
	if err := c.client.Call("Aircheck.HousekeepingSweep", HousekeepingSweepRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RetentionSweep triggers one TTL expiration sweep.
func (c *Client) RetentionSweep() (*RetentionSweepResponse, error) {
	var resp RetentionSweepResponse
	if err := c.client.Call("Aircheck.RetentionSweep", RetentionSweepRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Aircheck.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	var resp DatabaseHealthResponse
	if err := c.client.Call("Aircheck.DatabaseHealth", DatabaseHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Aircheck.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
