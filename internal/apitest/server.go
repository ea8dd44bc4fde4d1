// Package apitest is an in-memory implementation of the storefront REST API.
// It backs the client tests through httptest and can be served standalone
// for local runs of the CLI (see cmd/fakeapi).
//
// Deleting a product keeps the cart lines that reference it, as the real
// server does, so clients have to hide orphaned lines themselves.
package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/models"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const (
	defaultTokenTTL = 24 * time.Hour
	maxUploadSize   = 10 << 20
)

type userIDKey struct{}

type account struct {
	user     models.User
	password string
}

type cartLine struct {
	snapshot models.Product
	quantity int
}

// Server is safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	secret   []byte
	accounts map[string]*account
	products []models.Product
	carts    map[string][]cartLine
	requests int

	router *mux.Router
}

func New() *Server {
	s := &Server{
		secret:   common.GenerateRandByteArray(32),
		accounts: make(map[string]*account),
		carts:    make(map[string][]cartLine),
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)

	api.HandleFunc("/product", s.listProducts).Methods(http.MethodGet)
	api.Handle("/product/userproducts", s.authenticated(s.listUserProducts)).Methods(http.MethodGet)
	api.Handle("/product/", s.authenticated(s.createProduct)).Methods(http.MethodPost)
	api.HandleFunc("/product/{id}", s.getProduct).Methods(http.MethodGet)
	api.Handle("/product/{id}", s.authenticated(s.updateProduct)).Methods(http.MethodPut)
	api.Handle("/product/{id}", s.authenticated(s.deleteProduct)).Methods(http.MethodDelete)

	api.Handle("/cart/", s.authenticated(s.getCart)).Methods(http.MethodGet)
	api.Handle("/cart/{productId}", s.authenticated(s.addToCart)).Methods(http.MethodPost)
	api.Handle("/cart/{productId}", s.authenticated(s.updateCartItem)).Methods(http.MethodPatch)
	api.Handle("/cart/{productId}", s.authenticated(s.deleteCartItem)).Methods(http.MethodDelete)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests++
	s.mu.Unlock()

	s.router.ServeHTTP(w, r)
}

// Requests returns how many requests reached the server.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// AddUser registers an account directly, bypassing the API.
func (s *Server) AddUser(email, password, displayName string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := models.User{ID: uuid.NewString(), Email: email, DisplayName: displayName}
	s.accounts[email] = &account{user: u, password: password}
	return u
}

// AddProduct stores p, assigning an id when it has none.
func (s *Server) AddProduct(p models.Product) models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.products = append(s.products, p.Clone())
	return p
}

// HasProduct reports whether the catalog still contains id.
func (s *Server) HasProduct(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findProduct(id) >= 0
}

// CartProductIDs lists the product ids in the user's cart, orphans included.
func (s *Server) CartProductIDs(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.carts[userID]))
	for _, l := range s.carts[userID] {
		ids = append(ids, l.snapshot.ID)
	}
	return ids
}

// IssueToken signs a token for userID that expires after ttl. A negative ttl
// yields an already expired token.
func (s *Server) IssueToken(userID string, ttl time.Duration) string {
	token, err := GenerateToken(userID, s.secret, ttl)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(common.AccessTokenHeaderName)
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, message("Please login"))
			return
		}

		uid, err := UserIDFromToken(raw, s.secret)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, message("Invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, uid)
		next(w, r.WithContext(ctx))
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email == "" || creds.Password == "" {
		writeJSON(w, http.StatusBadRequest, message("Please provide email and password"))
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[creds.Email]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, message("Email already registered"))
		return
	}
	u := models.User{ID: uuid.NewString(), Email: creds.Email}
	s.accounts[creds.Email] = &account{user: u, password: creds.Password}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"user": u, "message": "User registered successfully"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid payload"})
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[creds.Email]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "User not registered"})
		return
	}
	if acc.password != creds.Password {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid credentials"})
		return
	}

	writeJSON(w, http.StatusOK, models.Session{User: acc.user, Token: s.IssueToken(acc.user.ID, defaultTokenTTL)})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := cloneProducts(s.products)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, data(out))
}

func (s *Server) listUserProducts(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	s.mu.Lock()
	out := make([]models.Product, 0)
	for _, p := range s.products {
		if p.OwnerID == uid {
			out = append(out, p.Clone())
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, data(out))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	i := s.findProduct(id)
	var p models.Product
	if i >= 0 {
		p = s.products[i].Clone()
	}
	s.mu.Unlock()

	if i < 0 {
		writeJSON(w, http.StatusNotFound, message("Product not found"))
		return
	}
	writeJSON(w, http.StatusOK, data(p))
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	fields, images, err := parseProductForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, message(err.Error()))
		return
	}
	if len(images) == 0 {
		writeJSON(w, http.StatusBadRequest, message("Product image is required"))
		return
	}

	p := models.Product{
		ID:          uuid.NewString(),
		Name:        fields.Name,
		Description: fields.Description,
		Price:       fields.Price,
		InStock:     fields.InStock,
		Images:      images,
		OwnerID:     userID(r),
	}

	s.mu.Lock()
	s.products = append(s.products, p.Clone())
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, data(p))
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	fields, images, err := parseProductForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, message(err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findProduct(id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, message("Product not found"))
		return
	}
	p := &s.products[i]
	if p.OwnerID != userID(r) {
		writeJSON(w, http.StatusForbidden, message("You don't have permission to modify this product"))
		return
	}

	p.Name, p.Description, p.Price, p.InStock = fields.Name, fields.Description, fields.Price, fields.InStock
	if len(images) > 0 {
		p.Images = images
	}

	writeJSON(w, http.StatusOK, data(p.Clone()))
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findProduct(id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, message("Product not found"))
		return
	}
	if s.products[i].OwnerID != userID(r) {
		writeJSON(w, http.StatusForbidden, message("You don't have permission to delete this product"))
		return
	}

	s.products = append(s.products[:i], s.products[i+1:]...)
	writeJSON(w, http.StatusOK, message("Product deleted successfully"))
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := s.cartItems(userID(r))
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, data(items))
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	uid, pid := userID(r), mux.Vars(r)["productId"]

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findProduct(pid)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, message("Product not found"))
		return
	}
	if s.findLine(uid, pid) >= 0 {
		writeJSON(w, http.StatusBadRequest, message("Product already in cart"))
		return
	}

	s.carts[uid] = append(s.carts[uid], cartLine{snapshot: s.products[i].Clone(), quantity: 1})
	writeJSON(w, http.StatusOK, data(s.cartItems(uid)))
}

func (s *Server) updateCartItem(w http.ResponseWriter, r *http.Request) {
	uid, pid := userID(r), mux.Vars(r)["productId"]

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, message("Invalid payload"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	li := s.findLine(uid, pid)
	if li < 0 {
		writeJSON(w, http.StatusNotFound, message("Product not in cart"))
		return
	}

	stock := s.carts[uid][li].snapshot.InStock
	if i := s.findProduct(pid); i >= 0 {
		stock = s.products[i].InStock
	}
	if body.Quantity < 1 || body.Quantity > stock {
		writeJSON(w, http.StatusBadRequest, message("Invalid quantity"))
		return
	}

	s.carts[uid][li].quantity = body.Quantity
	writeJSON(w, http.StatusOK, data(s.cartItems(uid)))
}

func (s *Server) deleteCartItem(w http.ResponseWriter, r *http.Request) {
	uid, pid := userID(r), mux.Vars(r)["productId"]

	s.mu.Lock()
	defer s.mu.Unlock()

	li := s.findLine(uid, pid)
	if li < 0 {
		writeJSON(w, http.StatusNotFound, message("Product not in cart"))
		return
	}

	lines := s.carts[uid]
	s.carts[uid] = append(lines[:li], lines[li+1:]...)
	writeJSON(w, http.StatusOK, message("Item removed from cart"))
}

// cartItems renders the cart with current product data where the product
// still exists and the stored snapshot otherwise. Callers hold s.mu.
func (s *Server) cartItems(uid string) []models.CartItem {
	items := make([]models.CartItem, 0, len(s.carts[uid]))
	for _, l := range s.carts[uid] {
		p := l.snapshot
		if i := s.findProduct(p.ID); i >= 0 {
			p = s.products[i]
		}
		items = append(items, models.CartItem{Product: p.Clone(), Quantity: l.quantity})
	}
	return items
}

func (s *Server) findProduct(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) findLine(uid, pid string) int {
	for i, l := range s.carts[uid] {
		if l.snapshot.ID == pid {
			return i
		}
	}
	return -1
}

func parseProductForm(r *http.Request) (models.ProductFields, []string, error) {
	var f models.ProductFields

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return f, nil, errors.New("invalid multipart form")
	}

	f.Name = r.FormValue("name")
	f.Description = r.FormValue("description")
	if f.Name == "" || f.Description == "" {
		return f, nil, errors.New("name and description are required")
	}

	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		return f, nil, errors.New("invalid price")
	}
	f.Price = price

	stock, err := strconv.Atoi(r.FormValue("inStock"))
	if err != nil {
		return f, nil, errors.New("invalid inStock")
	}
	f.InStock = stock

	var images []string
	for _, fh := range r.MultipartForm.File["productImage"] {
		images = append(images, "/uploads/"+uuid.NewString()+"-"+fh.Filename)
	}

	return f, images, nil
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey{}).(string)
	return id
}

func cloneProducts(ps []models.Product) []models.Product {
	out := make([]models.Product, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Clone())
	}
	return out
}

func data(v any) map[string]any {
	return map[string]any{"data": v}
}

func message(msg string) map[string]string {
	return map[string]string{"message": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
