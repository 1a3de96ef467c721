package accounts

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"kpiboard/internal/calculator"
)

// Store 基于单个 JSON 文件的账号与月度 KPI 存储
// 每次修改都是整文件读-改-写；进程内互斥，跨进程不加锁
type Store struct {
	path string
	cost int
	mu   sync.Mutex
}

// Open 打开存储；文件不存在时在首次写入时创建
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("accounts store path: %w", ErrInvalidInput)
	}
	if err := ensureDir(dirOf(path)); err != nil {
		return nil, fmt.Errorf("create accounts dir: %w", err)
	}
	return &Store{path: path, cost: bcrypt.DefaultCost}, nil
}

// Path 存储文件路径
func (s *Store) Path() string { return s.path }

// HashPassword bcrypt 加盐哈希
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword 校验密码
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Register 注册用户（本地管理入口，不限制角色）
func (s *Store) Register(username, password, role string) error {
	return s.register(username, password, role, true)
}

// RegisterAs 由外部调用方注册用户；非管理员调用方只能在存储为空时创建管理员
func (s *Store) RegisterAs(username, password, role string, byAdmin bool) error {
	return s.register(username, password, role, byAdmin)
}

func (s *Store) register(username, password, role string, byAdmin bool) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required: %w", ErrInvalidInput)
	}
	if role == "" {
		role = RoleEmployee
	}
	if role != RoleAdmin && role != RoleEmployee {
		return fmt.Errorf("unknown role %q: %w", role, ErrInvalidInput)
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.update(func(db *Database) error {
		if _, ok := db.Users[username]; ok {
			return ErrUserExists
		}
		if role == RoleAdmin && !byAdmin && len(db.Users) > 0 {
			return ErrAdminRequired
		}
		db.Users[username] = User{PasswordHash: hash, Role: role}
		return nil
	})
}

// Authenticate 校验用户名密码，返回角色
func (s *Store) Authenticate(username, password string) (string, error) {
	db, err := s.read()
	if err != nil {
		return "", err
	}
	u, ok := db.Users[username]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := CheckPassword(u.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}
	return u.Role, nil
}

// Users 列出用户名与角色（按用户名排序）
func (s *Store) Users() (map[string]string, []string, error) {
	db, err := s.read()
	if err != nil {
		return nil, nil, err
	}
	roles := make(map[string]string, len(db.Users))
	names := make([]string, 0, len(db.Users))
	for name, u := range db.Users {
		roles[name] = u.Role
		names = append(names, name)
	}
	sort.Strings(names)
	return roles, names, nil
}

// AddKPI 追加一条月度 KPI；用户必须存在
func (s *Store) AddKPI(entry KPIEntry) error {
	entry.KPIName = strings.TrimSpace(entry.KPIName)
	if entry.KPIName == "" {
		return fmt.Errorf("kpi name is required: %w", ErrInvalidInput)
	}
	if !monthPattern.MatchString(entry.Month) {
		return fmt.Errorf("month %q must be YYYY-MM: %w", entry.Month, ErrInvalidInput)
	}
	return s.update(func(db *Database) error {
		if _, ok := db.Users[entry.User]; !ok {
			return fmt.Errorf("%w: %s", ErrUserNotFound, entry.User)
		}
		db.KPIs = append(db.KPIs, entry)
		return nil
	})
}

// ListKPIs 查询 KPI（保持写入顺序）并计算完成率
func (s *Store) ListKPIs(filter KPIFilter) ([]KPIView, error) {
	db, err := s.read()
	if err != nil {
		return nil, err
	}
	var out []KPIView
	for _, k := range db.KPIs {
		if filter.User != "" && k.User != filter.User {
			continue
		}
		if filter.Month != "" && k.Month != filter.Month {
			continue
		}
		out = append(out, KPIView{
			KPIEntry:      k,
			CompletionPct: calculator.CompletionPct(k.Actual, k.Target),
		})
	}
	return out, nil
}

// MonthlyCompletion 某用户某月的汇总完成率
func (s *Store) MonthlyCompletion(user, month string) (MonthlySummary, error) {
	views, err := s.ListKPIs(KPIFilter{User: user, Month: month})
	if err != nil {
		return MonthlySummary{}, err
	}
	sum := MonthlySummary{User: user, Month: month, Count: len(views)}
	for _, v := range views {
		sum.TotalTarget += v.Target
		sum.TotalActual += v.Actual
	}
	sum.CompletionPct = calculator.CompletionPct(sum.TotalActual, sum.TotalTarget)
	return sum, nil
}

func (s *Store) read() (*Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// update 整文件读-改-写
func (s *Store) update(fn func(db *Database) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		return err
	}
	if err := writeJSONAtomic(s.path, db); err != nil {
		return fmt.Errorf("write accounts store: %w", err)
	}
	return nil
}

func (s *Store) load() (*Database, error) {
	db := &Database{}
	if err := readJSON(s.path, db); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read accounts store: %w", err)
		}
	}
	if db.Users == nil {
		db.Users = make(map[string]User)
	}
	if db.KPIs == nil {
		db.KPIs = []KPIEntry{}
	}
	return db, nil
}
