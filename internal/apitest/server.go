// Package apitest runs an in-memory task service that speaks the same
// HTTP contract as the real remote authority. Tests use it to exercise the
// client over a real socket.
package apitest

import (
	"encoding/json"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = time.Hour

var resources = []string{"tasks", "projects", "notes"}

// Request is a captured inbound request.
type Request struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

type account struct {
	id       int
	username string
	password string
	role     string
}

type failure struct {
	status int
	msg    string
}

type record map[string]any

type hold struct {
	ch   chan struct{}
	once sync.Once
}

func (h *hold) release() { h.once.Do(func() { close(h.ch) }) }

// Server is a fake remote authority.
type Server struct {
	URL string

	app       *fiber.App
	closeOnce sync.Once

	mu       sync.Mutex
	secret   []byte
	nextID   int
	accounts map[string]*account
	data     map[string][]record
	failures map[string]failure
	holds    map[string]*hold
	parked   []*hold
	requests []Request
}

// New starts a server on a loopback port and stops it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{
		URL:      "http://" + ln.Addr().String(),
		secret:   []byte("apitest-secret"),
		accounts: map[string]*account{},
		data:     map[string][]record{},
		failures: map[string]failure{},
		holds:    map[string]*hold{},
	}
	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
	})
	s.routes()
	go func() { _ = s.app.Listener(ln) }()
	t.Cleanup(s.Close)
	return s
}

// Close stops the server. Later requests fail at the transport level.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		for _, h := range s.parked {
			h.release()
		}
		s.mu.Unlock()
		_ = s.app.Shutdown()
	})
}

func (s *Server) routes() {
	s.app.Use(s.capture)
	api := s.app.Group("/api")
	api.Post("/login", s.login)
	api.Post("/register", s.register)
	for _, name := range resources {
		g := api.Group("/"+name, s.requireToken)
		g.Get("", s.list(name))
		g.Post("", s.create(name))
		g.Put("/:id", s.replace(name))
		g.Delete("/:id", s.remove(name))
	}
}

// AddUser registers an account directly and returns its id.
func (s *Server) AddUser(username, password, role string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password, role).id
}

func (s *Server) addUserLocked(username, password, role string) *account {
	s.nextID++
	a := &account{id: s.nextID, username: username, password: password, role: role}
	s.accounts[username] = a
	return a
}

// Seed stores items for the named user. Ids are assigned by the server.
func (s *Server) Seed(username, resource string, items ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[username]
	if !ok {
		panic("apitest: unknown user " + username)
	}
	for _, item := range items {
		raw, _ := json.Marshal(item)
		var r record
		_ = json.Unmarshal(raw, &r)
		s.nextID++
		r["id"] = s.nextID
		r["user_id"] = acct.id
		s.data[resource] = append(s.data[resource], r)
	}
}

// Fail makes the next request matching method and route fail with status.
// Route is "login", "register" or a collection name.
func (s *Server) Fail(method, route string, status int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+route] = failure{status: status, msg: msg}
}

// HoldNext parks the next request matching method and route until release
// is called.
func (s *Server) HoldNext(method, route string) (release func()) {
	h := &hold{ch: make(chan struct{})}
	s.mu.Lock()
	s.holds[method+" "+route] = h
	s.parked = append(s.parked, h)
	s.mu.Unlock()
	return h.release
}

// RevokeTokens rotates the signing key so every issued token is rejected.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret = append([]byte("rotated-"), s.secret...)
}

// Requests returns the captured requests in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Items returns the stored records of a collection.
func (s *Server) Items(resource string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.data[resource]))
	for _, r := range s.data[resource] {
		out = append(out, map[string]any(r))
	}
	return out
}

func (s *Server) capture(c *fiber.Ctx) error {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: c.Method(),
		Path:   c.Path(),
		Auth:   c.Get(fiber.HeaderAuthorization),
		Body:   string(c.Body()),
	})
	s.mu.Unlock()
	return c.Next()
}

// intercept applies injected failures and holds. It reports whether the
// response was already written.
func (s *Server) intercept(c *fiber.Ctx, route string) (bool, error) {
	key := c.Method() + " " + route
	s.mu.Lock()
	h, held := s.holds[key]
	delete(s.holds, key)
	f, failed := s.failures[key]
	delete(s.failures, key)
	s.mu.Unlock()

	if held {
		<-h.ch
	}
	if failed {
		return true, c.Status(f.status).JSON(fiber.Map{"msg": f.msg})
	}
	return false, nil
}

func (s *Server) login(c *fiber.Ctx) error {
	if done, err := s.intercept(c, "login"); done {
		return err
	}
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid body"})
	}
	s.mu.Lock()
	a, ok := s.accounts[body.Username]
	secret := s.secret
	s.mu.Unlock()
	if !ok || a.password != body.Password {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Invalid credentials"})
	}

	claims := jwt.MapClaims{
		"sub":  strconv.Itoa(a.id),
		"name": a.username,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(TokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"msg": err.Error()})
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  fiber.Map{"id": a.id, "username": a.username, "role": a.role},
	})
}

func (s *Server) register(c *fiber.Ctx) error {
	if done, err := s.intercept(c, "register"); done {
		return err
	}
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil || body.Username == "" || body.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "Username and password required"})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[body.Username]; exists {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "User already exists"})
	}
	s.addUserLocked(body.Username, body.Password, body.Role)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"msg": "User registered"})
}

func (s *Server) requireToken(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Missing token"})
	}
	s.mu.Lock()
	secret := s.secret
	s.mu.Unlock()

	token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Invalid or expired token"})
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Invalid token subject"})
	}
	uid, err := strconv.Atoi(sub)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Invalid token subject"})
	}
	c.Locals("uid", uid)
	return c.Next()
}

func owner(c *fiber.Ctx) int {
	uid, _ := c.Locals("uid").(int)
	return uid
}

func ownedBy(r record, uid int) bool {
	v, ok := r["user_id"].(int)
	return ok && v == uid
}

func idOf(r record) int {
	switch v := r["id"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (s *Server) list(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if done, err := s.intercept(c, name); done {
			return err
		}
		uid := owner(c)
		s.mu.Lock()
		out := []record{}
		for _, r := range s.data[name] {
			if ownedBy(r, uid) {
				out = append(out, r)
			}
		}
		s.mu.Unlock()
		return c.JSON(out)
	}
}

func (s *Server) create(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if done, err := s.intercept(c, name); done {
			return err
		}
		var r record
		if err := json.Unmarshal(c.Body(), &r); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid body"})
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		s.nextID++
		r["id"] = s.nextID
		r["user_id"] = owner(c)
		s.data[name] = append(s.data[name], r)
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

func (s *Server) replace(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if done, err := s.intercept(c, name); done {
			return err
		}
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "Not found"})
		}
		var body record
		if err := json.Unmarshal(c.Body(), &body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "invalid body"})
		}
		uid := owner(c)
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, r := range s.data[name] {
			if idOf(r) == id && ownedBy(r, uid) {
				body["id"] = id
				body["user_id"] = uid
				s.data[name][i] = body
				return c.JSON(body)
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "Not found"})
	}
}

func (s *Server) remove(name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if done, err := s.intercept(c, name); done {
			return err
		}
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "Not found"})
		}
		uid := owner(c)
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, r := range s.data[name] {
			if idOf(r) == id && ownedBy(r, uid) {
				s.data[name] = slices.Delete(s.data[name], i, i+1)
				return c.SendStatus(fiber.StatusNoContent)
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "Not found"})
	}
}
