package dingsdk

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type DingContent struct {
	Content string `json:"content"`
}

type DingAt struct {
	IsAtAll bool `json:"isAtAll"`
}

type DingNotify struct {
	MsgType string      `json:"msgtype"`
	Text    DingContent `json:"text"`
	At      DingAt      `json:"at"`
}

type DingResult struct {
	ErrCode int64  `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type DingSdk struct {
	url    string
	client *http.Client
}

func NewDingSdk(url string) *DingSdk {
	sdk := &DingSdk{
		url:    url,
		client: &http.Client{},
	}
	return sdk
}

// Notify posts a plain text message to the webhook. Delivery failures are
// returned but never worth retrying here.
func (sdk *DingSdk) Notify(content string) error {
	notify := &DingNotify{
		MsgType: "text",
		Text:    DingContent{Content: content},
		At:      DingAt{IsAtAll: false},
	}
	requestJson, _ := json.Marshal(notify)
	req, err := http.NewRequest("POST", sdk.url, strings.NewReader(string(requestJson)))
	if err != nil {
		return err
	}
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("Content-Type", "application/json")
	resp, err := sdk.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("response status code: %d", resp.StatusCode)
	}
	respBody, _ := io.ReadAll(resp.Body)
	dingResult := new(DingResult)
	if err = json.Unmarshal(respBody, dingResult); err != nil {
		return err
	}
	if dingResult.ErrCode != 0 || dingResult.ErrMsg != "ok" {
		return fmt.Errorf("code: %d, err: %s", dingResult.ErrCode, dingResult.ErrMsg)
	}
	return nil
}
