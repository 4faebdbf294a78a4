package testutil

// WorksCSV is a works feed in the published sheet layout:
// Date, Client, Description, Price, Note.
const WorksCSV = `Date,Client,Description,Price,Note
2024-11-11,Acme,Logo design,1500,Paid in full
2024-11-12,Globex,"Brochure, 4 pages",2500,pending
2024-11-13,Acme,Business cards,500,PAID
2024-11-14,Initech,Website,abc,
bad,row
2024-11-15,,Internal,100,paid cash
`

// ExpensesCSV is an expenses feed where column G holds the sheet's running
// totals on fixed rows: body rows 0 and 1 sum to 1500 and body row 3 holds 6500.
// Body rows 2 and 4 carry G values that must be ignored.
const ExpensesCSV = `Date,Credit,Debit,To/From,Client,Balance,Totals,Extra
2024-11-01,5000,0,Acme,Acme,5000,1200,x
2024-11-02,0,750,Stationery,,4250,300,x
2024-11-03,2500,0,Globex,Globex,6750,999,x
2024-11-04,0,250,Courier,,6500,6500,x
2024-11-05,0,100,Bank fee,,6400,9999,x
2024-11-06,,,Note only,,,
`
