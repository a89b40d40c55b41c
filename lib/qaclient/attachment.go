package qaclient

import (
	"context"
	"fmt"
)

// FetchAttachment downloads an attachment by id. The metadata's label
// field doubles as the original filename when re-submitting the content.
func (c *Client) FetchAttachment(ctx context.Context, attachmentId string) (Attachment, []byte, error) {
	var attachment Attachment
	err := c.getJson(ctx, fmt.Sprintf("attachments/attachments/%s/", attachmentId), nil, &attachment)
	if err != nil {
		return Attachment{}, nil, fmt.Errorf("fetch attachment %s: %w", attachmentId, err)
	}

	err = c.limiter.Acquire(ctx)
	if err != nil {
		return Attachment{}, nil, err
	}
	res, err := c.http.R().SetContext(ctx).Get(attachment.Download)
	if err != nil {
		return Attachment{}, nil, fmt.Errorf("download attachment %s: %w", attachmentId, err)
	}
	if res.IsError() {
		return Attachment{}, nil, fmt.Errorf("download attachment %s: %s", attachmentId, res.Status())
	}
	return attachment, res.Body(), nil
}
