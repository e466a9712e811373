package task

import "text/template"

var acceptEntryTemplate = template.Must(template.New("entry-accept").Parse(`
Go to {{.Website}}, accept cookies, wait for a moment and close any other pop-ups. If no cookie dialogue appears when the website loads, do not scroll down to look for it.

# NOTES
- Additional pop-ups can usually be closed with the 'X' or an option such as 'Close'.
- When asked to pick between several versions of the webshop, choose the {{.Language}} webshop.

The task is complete once no cookie dialogue or pop-up is visible.`))

var declineEntryTemplate = template.Must(template.New("entry-decline").Parse(`
Go to {{.Website}}, decline cookies, wait for a moment and close any other pop-ups. If no cookie dialogue appears when the website loads, do not go looking for one.

# DECLINE INSTRUCTIONS
- Prefer options such as 'Decline', 'Refuse' or 'Only necessary cookies'.
- Only when there is no direct way to decline, open options such as 'Preferences', 'Manage preferences', 'Manage cookies' or 'Personalise cookies', reject the cookies in that menu and save the selection if required ('Save preferences', 'Save selection').

# NOTES
- Additional pop-ups can usually be closed with the 'X' or an option such as 'Close'.
- When asked to pick between several versions of the webshop, choose the option that stays on the current webshop.

The task is complete once no cookie dialogue or pop-up is visible.`))

const selectionTask = `
Find a product on the current website and add it to the cart.

# SEARCHING A PRODUCT
- Open the product page of one of the products.

# ADDING A PRODUCT TO THE CART
- Do not favourite the product or add it to a wishlist; add it to the cart.
- Adding a product may require choosing a colour or size first (buttons or a dropdown menu). Always choose an option that is in stock.
- When a product is out of stock, return to the product overview and choose another product.

# GO TO CART OVERVIEW
- After adding the product, open the cart overview, usually through the icon at the top right of the page or a checkout button.
- Look for options such as 'Go to shopping cart' once the product has been added.

The task is complete once the cart overview is shown with a product in the cart.`

var genericCheckoutTemplate = template.Must(template.New("checkout-generic").Parse(`
Navigate to checkout and fill in all the form fields. The task is complete once all the information is accepted and the form has been submitted.

# FROM CART OVERVIEW TO CHECKOUT
- Look for buttons that continue to checkout (options such as 'Process Order', 'Continue to payment').

# PROCEED AS GUEST OR CREATE NEW ACCOUNT
- If possible, proceed as guest (options such as 'Continue as guest', 'Order as guest', 'I am a new customer' or 'New here?').
- Otherwise, create a new account.
- Never try to log in to an existing account.

# USER DATA
Use the following profile. Improvise data for any other fields, or when the form does not submit.

- Gender: {{.General.Gender}} (check in the image whether the option is already selected and do not click it again if so)
- First Name: {{.General.FirstName}}
- Last Name: {{.General.LastName}}
- Email address: {{.Email}}
- Password: {{.General.Password}}
- Country Code: {{.Local.CountryCode}}
- Phone Number: {{.Local.LocalFormat}}
- Country Code + Phone Number: {{.Local.InternationalFormat}}
- Date of birth: {{.General.DateOfBirth}} (use the format the website requires; day, month and year may need to be entered one by one)

- Street: {{.Local.Street}}
- House Number: {{.Local.HouseNumber}}
- Address: {{.Address}}
- ZIP Code: {{.Local.ZipCode}}
- City: {{.Local.City}}
- Province: {{.Local.Province}}
- Country: {{.Local.Country}}

# PAYMENT INFORMATION
For payment options, choose {{.Local.PaymentOptions}}. For credit card, use the following information:
- Card number: {{.General.CreditCardNumber}}
- Expiry Month: {{.General.CreditCardExpiryMonth}}
- Expiry Year: {{.General.CreditCardExpiryYear}}
- CVV: {{.General.CreditCardCVV}}
- Card Holder: {{.FullName}}

# IMPORTANT RULES
- Choose the standard delivery option.
- Some dropdown menus must be clicked before their options become visible.
- Click a radio button only once.
- When combining country code and phone number, drop the first 0 of the phone number.
- Not every form needs all of the data above; do not go looking for fields that are not there.
- Credit card fields sometimes only appear after clicking 'Continue to Payment'; scrolling further does not help.
- Once all fields are filled, look for a continue button ('Continue', 'Continue to payment').

The task is complete once the form has been submitted. A payment that is processing or has failed still counts as complete.`))

var shopifyCheckoutTemplate = template.Must(template.New("checkout-shopify").Parse(`
Navigate to checkout and fill in all the form fields. The task is complete once all the information is accepted and the form has been submitted.

# FROM CART OVERVIEW TO CHECKOUT
- Look for buttons that continue to checkout (options such as 'Process Order', 'Continue to payment').

# PROCEED AS GUEST OR CREATE NEW ACCOUNT
- If possible, proceed as guest (options such as 'Continue as guest', 'Order as guest', 'I am a new customer' or 'New here?').
- Otherwise, create a new account.
- Never try to log in to an existing account.

# USER DATA
Use the following profile. Improvise data for any other fields, or when the form does not submit.

- Email address: {{.Email}}
- Country: {{.Local.Country}}
- First Name: {{.General.FirstName}}
- Last Name: {{.General.LastName}}
- Address: {{.Address}}
- ZIP Code: {{.Local.ZipCode}}
- City: {{.Local.City}}
- Province: {{.Local.Province}}
- Phone Number: {{.Local.CountryCode}}{{.General.PhoneWithoutTrunkPrefix}}

# PAYMENT INFORMATION
For payment options, choose credit card. Use the following information:
- Card number: {{.General.CreditCardNumber}}
- Expiry Date: {{.General.CreditCardExpiryMonth}}/{{.General.CreditCardExpiryYear}}
- Security Code: {{.General.CreditCardCVV}}
- Name on card: {{.FullName}}

# IMPORTANT RULES
- Choose the standard delivery option.
- Some dropdown menus must be clicked before their options become visible.
- Click a radio button only once.
- The element list shows many candidates for the Expiry Date and Security Code fields; only use the ones whose index is shown in the image.
- Only tick checkboxes related to 'terms and conditions'.
- Ignore <button type='submit'>Continue /> in any language.
- Ignore <select phone_country_select;Country/Region>.
- Once all fields are filled, look for a submit button ('Continue to Payment', 'Review Order') that is visible at the bottom of the page.

The task is complete once the form has been submitted. A payment that is processing or has failed still counts as complete.`))
