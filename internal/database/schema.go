package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// applySchema creates missing tables on startup.  Every statement is
// idempotent so repeated startups are safe.  The layout is written once
// and specialised per dialect through the @PK and @REF placeholders;
// secondary lookups ride on the unique and foreign key indexes.
func applySchema(db *sql.DB, driver string) error {
	for _, stmt := range schemaStatements(driver) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}

func schemaStatements(driver string) []string {
	pk := "INTEGER PRIMARY KEY"
	ref := "INTEGER"
	tail := ""
	if driver == "mysql" {
		pk = "BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY"
		ref = "BIGINT UNSIGNED"
		tail = " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	}
	repl := strings.NewReplacer("@PK", pk, "@REF", ref)

	raw := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id @PK,
			username VARCHAR(64) NOT NULL,
			email VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL,
			theme_preference VARCHAR(16) NOT NULL DEFAULT 'system',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			CONSTRAINT uq_users_username UNIQUE (username),
			CONSTRAINT uq_users_email UNIQUE (email)
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id @PK,
			user_id @REF NOT NULL,
			token_hash VARCHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			CONSTRAINT uq_refresh_tokens_hash UNIQUE (token_hash),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS folders (
			id @PK,
			name VARCHAR(255) NOT NULL,
			created_by_id @REF NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (created_by_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			id @PK,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			status VARCHAR(16) NOT NULL,
			folder_id @REF NULL,
			created_by_id @REF NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (folder_id) REFERENCES folders(id),
			FOREIGN KEY (created_by_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS project_users (
			id @PK,
			project_id @REF NOT NULL,
			user_id @REF NOT NULL,
			role VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL,
			CONSTRAINT uq_project_users UNIQUE (project_id, user_id),
			FOREIGN KEY (project_id) REFERENCES projects(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS invitations (
			id @PK,
			email VARCHAR(255) NOT NULL,
			project_id @REF NOT NULL,
			role VARCHAR(16) NOT NULL,
			token VARCHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			is_accepted TINYINT NOT NULL DEFAULT 0,
			email_sent TINYINT NOT NULL DEFAULT 0,
			created_by_id @REF NOT NULL,
			created_at DATETIME NOT NULL,
			CONSTRAINT uq_invitations_token UNIQUE (token),
			FOREIGN KEY (project_id) REFERENCES projects(id),
			FOREIGN KEY (created_by_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			id @PK,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			filename VARCHAR(255) NOT NULL,
			stored_name VARCHAR(255) NOT NULL,
			file_type VARCHAR(16) NOT NULL,
			file_size BIGINT NOT NULL,
			project_id @REF NOT NULL,
			uploaded_by_id @REF NOT NULL,
			version INT NOT NULL DEFAULT 1,
			is_latest_version TINYINT NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id),
			FOREIGN KEY (uploaded_by_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS video_processing (
			id @PK,
			file_id @REF NOT NULL,
			status VARCHAR(16) NOT NULL,
			error_message TEXT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (file_id) REFERENCES files(id)
		)`,
		`CREATE TABLE IF NOT EXISTS share_links (
			id @PK,
			file_id @REF NOT NULL,
			token VARCHAR(64) NOT NULL,
			created_by_id @REF NOT NULL,
			expires_at DATETIME NULL,
			created_at DATETIME NOT NULL,
			CONSTRAINT uq_share_links_token UNIQUE (token),
			FOREIGN KEY (file_id) REFERENCES files(id),
			FOREIGN KEY (created_by_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id @PK,
			file_id @REF NOT NULL,
			user_id @REF NOT NULL,
			parent_id @REF NULL,
			content TEXT NOT NULL,
			media_timestamp DOUBLE NULL,
			is_resolved TINYINT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (file_id) REFERENCES files(id),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (parent_id) REFERENCES comments(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS comment_reactions (
			id @PK,
			comment_id @REF NOT NULL,
			user_id @REF NOT NULL,
			emoji VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL,
			CONSTRAINT uq_comment_reactions UNIQUE (comment_id, user_id, emoji),
			FOREIGN KEY (comment_id) REFERENCES comments(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS public_comments (
			id @PK,
			share_link_id @REF NOT NULL,
			file_id @REF NOT NULL,
			display_name VARCHAR(40) NOT NULL,
			content TEXT NOT NULL,
			media_timestamp DOUBLE NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (share_link_id) REFERENCES share_links(id),
			FOREIGN KEY (file_id) REFERENCES files(id)
		)`,
		`CREATE TABLE IF NOT EXISTS approvals (
			id @PK,
			file_id @REF NOT NULL,
			user_id @REF NOT NULL,
			status VARCHAR(32) NOT NULL,
			feedback TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (file_id) REFERENCES files(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS activity_log (
			id @PK,
			action VARCHAR(32) NOT NULL,
			entity_type VARCHAR(32) NOT NULL,
			entity_id @REF NOT NULL,
			user_id @REF NOT NULL,
			project_id @REF NULL,
			metadata TEXT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (project_id) REFERENCES projects(id)
		)`,
	}

	stmts := make([]string, len(raw))
	for i, stmt := range raw {
		stmts[i] = repl.Replace(stmt) + tail
	}
	return stmts
}
