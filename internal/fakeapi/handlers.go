package fakeapi

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"pulsecart/internal/models"
	"pulsecart/internal/seed"
)

// DefaultProducts is the bundled catalog.
func DefaultProducts() []models.Product {
	return seed.MustProducts()
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid id")
	}
	return id, nil
}

func bindValid(c echo.Context, payload any) error {
	if err := c.Bind(payload); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid payload")
	}
	if err := models.Validate(payload); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

func (s *Server) listProducts(c echo.Context) error {
	s.mu.Lock()
	products := slices.Clone(s.products)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, products)
}

func (s *Server) getProduct(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	product, ok := s.findProduct(id)
	s.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	return c.JSON(http.StatusOK, product)
}

func (s *Server) register(c echo.Context) error {
	var req models.RegisterPayload
	if err := bindValid(c, &req); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.Email]; exists {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
	}
	s.nextUser++
	a := &account{
		user:     models.User{ID: s.nextUser, Email: req.Email},
		password: req.Password,
	}
	s.accounts[req.Email] = a
	return c.JSON(http.StatusCreated, a.user)
}

func (s *Server) login(c echo.Context) error {
	var req models.LoginPayload
	if err := bindValid(c, &req); err != nil {
		return err
	}

	s.mu.Lock()
	a, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok || a.password != req.Password {
		return echo.NewHTTPError(http.StatusUnauthorized, "Incorrect email or password")
	}

	token, err := s.issueToken(a.user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.AuthResponse{AccessToken: token})
}

func (s *Server) me(c echo.Context) error {
	userID := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.user.ID == userID {
			return c.JSON(http.StatusOK, a.user)
		}
	}
	return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
}

func (s *Server) getCart(c echo.Context) error {
	s.mu.Lock()
	cart := s.cartLocked(currentUser(c))
	s.mu.Unlock()
	return c.JSON(http.StatusOK, cart)
}

func (s *Server) addToCart(c echo.Context) error {
	var req models.CartItemCreate
	if err := bindValid(c, &req); err != nil {
		return err
	}
	userID := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.findProduct(req.ProductID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}

	items := s.carts[userID]
	i := slices.IndexFunc(items, func(item models.CartItem) bool {
		return item.Product != nil && item.Product.ID == req.ProductID
	})
	if i >= 0 {
		items[i].Quantity += req.Quantity
		items[i] = priced(items[i])
	} else {
		s.nextItem++
		p := product
		items = append(items, priced(models.CartItem{ID: s.nextItem, Quantity: req.Quantity, Product: &p}))
	}
	s.carts[userID] = items

	return c.JSON(http.StatusCreated, s.cartLocked(userID))
}

func (s *Server) updateCartItem(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req models.CartItemUpdate
	if err := bindValid(c, &req); err != nil {
		return err
	}
	userID := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	i := slices.IndexFunc(items, func(item models.CartItem) bool { return item.ID == id })
	if i < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Cart item not found")
	}
	items[i].Quantity = req.Quantity
	items[i] = priced(items[i])

	return c.JSON(http.StatusOK, s.cartLocked(userID))
}

func (s *Server) removeCartItem(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	userID := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	i := slices.IndexFunc(items, func(item models.CartItem) bool { return item.ID == id })
	if i < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Cart item not found")
	}
	s.carts[userID] = slices.Delete(items, i, i+1)

	return c.JSON(http.StatusOK, s.cartLocked(userID))
}

func (s *Server) listOrders(c echo.Context) error {
	userID := currentUser(c)

	s.mu.Lock()
	orders := slices.Clone(s.orders[userID])
	s.mu.Unlock()

	// newest first
	slices.Reverse(orders)
	if orders == nil {
		orders = []models.Order{}
	}
	return c.JSON(http.StatusOK, orders)
}

func (s *Server) createOrder(c echo.Context) error {
	userID := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[userID]
	if len(items) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Cart is empty")
	}
	for _, item := range items {
		product, ok := s.findProduct(item.Product.ID)
		if !ok || product.Stock == nil || *product.Stock < item.Quantity {
			return echo.NewHTTPError(http.StatusBadRequest, "Insufficient stock")
		}
	}

	s.nextOrder++
	order := models.Order{ID: s.nextOrder, Status: "pending", TotalPrice: decimal.Zero}
	for _, item := range items {
		unit := item.Product.Price
		subtotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		order.Items = append(order.Items, models.OrderItem{
			ID:            item.ID,
			Quantity:      item.Quantity,
			UnitPrice:     unit,
			SubtotalPrice: subtotal,
			Product:       item.Product,
		})
		order.TotalPrice = order.TotalPrice.Add(subtotal)
		s.takeStock(item.Product.ID, item.Quantity)
	}

	s.orders[userID] = append(s.orders[userID], order)
	delete(s.carts, userID)

	return c.JSON(http.StatusCreated, order)
}

func (s *Server) getOrder(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	userID := currentUser(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders[userID] {
		if order.ID == id {
			return c.JSON(http.StatusOK, order)
		}
	}
	return echo.NewHTTPError(http.StatusNotFound, "Order not found")
}

func (s *Server) takeStock(productID int64, quantity int) {
	for i := range s.products {
		if s.products[i].ID == productID && s.products[i].Stock != nil {
			left := *s.products[i].Stock - quantity
			s.products[i].Stock = &left
		}
	}
}
