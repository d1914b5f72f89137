package repositories

import "context"

// Repository aggregates all sub-repository interfaces.
type Repository interface {
	// Identity domain
	User() UserRepository

	// Access control domain
	Role() RoleRepository
	Grant() GrantRepository

	// Tenant domain
	School() SchoolRepository
	Teacher() TeacherRepository
	Student() StudentRepository
	Parent() ParentRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager owns the repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
