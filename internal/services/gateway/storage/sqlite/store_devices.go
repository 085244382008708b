package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/accountgate/internal/services/gateway/storage"
)

// PutDevice upserts a device registration keyed by (account, device).
func (s *Store) PutDevice(ctx context.Context, d storage.Device) error {
	if strings.TrimSpace(d.AccountID) == "" {
		return fmt.Errorf("device account id is required")
	}
	if strings.TrimSpace(d.DeviceID) == "" {
		return fmt.Errorf("device id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO account_devices (account_id, device_id, platform, push_token, app_version, active, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(account_id, device_id) DO UPDATE SET
	platform = excluded.platform,
	push_token = excluded.push_token,
	app_version = excluded.app_version,
	active = excluded.active,
	updated_at = excluded.updated_at
`, d.AccountID, d.DeviceID, d.Platform, d.PushToken, d.AppVersion, d.Active, toMillis(d.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put device: %w", err)
	}
	return nil
}

// ListAccountDevices returns every device registered by the account.
func (s *Store) ListAccountDevices(ctx context.Context, accountID string) ([]storage.Device, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT account_id, device_id, platform, push_token, app_version, active, updated_at
FROM account_devices
WHERE account_id = ?
ORDER BY device_id
`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list account devices: %w", err)
	}
	defer rows.Close()

	var devices []storage.Device
	for rows.Next() {
		var d storage.Device
		var updatedAt int64
		if err := rows.Scan(&d.AccountID, &d.DeviceID, &d.Platform, &d.PushToken, &d.AppVersion, &d.Active, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		d.UpdatedAt = fromMillis(updatedAt)
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate devices: %w", err)
	}
	return devices, nil
}
