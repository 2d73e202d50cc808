package sms

import (
	"strings"
	"testing"
)

func TestParseDeliveryReport(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    DeliveryReport
		wantErr bool
	}{
		{
			name: "delivered",
			body: `{"message_id":"am-123","status":"DELIVERED"}`,
			want: DeliveryReport{ProviderRef: "am-123", Status: "delivered"},
		},
		{
			name: "failed with reason",
			body: `{"message_id":"am-456","status":"FAILED","reason":"absent subscriber"}`,
			want: DeliveryReport{ProviderRef: "am-456", Status: "failed", Reason: "absent subscriber"},
		},
		{
			name: "lowercase status accepted",
			body: `{"message_id":"am-789","status":"delivered"}`,
			want: DeliveryReport{ProviderRef: "am-789", Status: "delivered"},
		},
		{
			name:    "missing message id",
			body:    `{"status":"DELIVERED"}`,
			wantErr: true,
		},
		{
			name:    "unknown status",
			body:    `{"message_id":"am-1","status":"PENDING"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			body:    `status=DELIVERED`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDeliveryReport(strings.NewReader(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
