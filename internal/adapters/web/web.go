package web

// Re-export types from subpackages for backward compatibility
import (
	websocket "github.com/lcalzada-xor/pktsender/internal/adapters/web/websocket"
)

// WSManager is re-exported from the websocket subpackage
type WSManager = websocket.WSManager

// NewWSManager creates a new WSManager
func NewWSManager(allowedOrigins []string) *WSManager {
	return websocket.NewWSManager(allowedOrigins)
}
